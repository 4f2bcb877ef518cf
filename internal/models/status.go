package models

type SessionStatus string

const (
	StatusRequest          SessionStatus = "Request"
	StatusNegotiation      SessionStatus = "Negotiation"
	StatusPreScheduled     SessionStatus = "Pre-scheduled"
	StatusConfirmed        SessionStatus = "Confirmed"
	StatusAssigned         SessionStatus = "Assigned"
	StatusAttended         SessionStatus = "Attended"
	StatusInEditing        SessionStatus = "In Editing"
	StatusReadyForDelivery SessionStatus = "Ready for Delivery"
	StatusCompleted        SessionStatus = "Completed"
	StatusCanceled         SessionStatus = "Canceled"
)

// AllStatuses lists every lifecycle status in pipeline order.
var AllStatuses = []SessionStatus{
	StatusRequest,
	StatusNegotiation,
	StatusPreScheduled,
	StatusConfirmed,
	StatusAssigned,
	StatusAttended,
	StatusInEditing,
	StatusReadyForDelivery,
	StatusCompleted,
	StatusCanceled,
}

// validTransitions is the fixed adjacency table of the lifecycle state
// machine. Any edge absent from this table is illegal; cancellation is
// reachable from every non-terminal state.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusRequest:          {StatusNegotiation, StatusPreScheduled, StatusCanceled},
	StatusNegotiation:      {StatusPreScheduled, StatusCanceled},
	StatusPreScheduled:     {StatusConfirmed, StatusCanceled},
	StatusConfirmed:        {StatusAssigned, StatusCanceled},
	StatusAssigned:         {StatusAttended, StatusCanceled},
	StatusAttended:         {StatusInEditing, StatusCanceled},
	StatusInEditing:        {StatusReadyForDelivery, StatusCanceled},
	StatusReadyForDelivery: {StatusCompleted, StatusCanceled},
	StatusCompleted:        {},
	StatusCanceled:         {},
}

func (s SessionStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanTransitionTo reports whether the edge s → target exists in the
// adjacency table.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
