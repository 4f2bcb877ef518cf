package dto

import (
	"time"

	"github.com/atelierfoto/session-service/internal/ledger"
	"github.com/atelierfoto/session-service/internal/models"
)

type SessionResponse struct {
	ID     uint                 `json:"id"`
	Code   string               `json:"code"`
	Client uint                 `json:"client_id"`
	Kind   models.SessionKind   `json:"kind"`
	Status models.SessionStatus `json:"status"`

	SessionDate time.Time `json:"session_date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	RoomID      *uint     `json:"room_id,omitempty"`
	EditorID    *uint     `json:"editor_id,omitempty"`

	SubtotalCents     int64 `json:"subtotal_cents"`
	TransportCents    int64 `json:"transport_cents"`
	DiscountCents     int64 `json:"discount_cents"`
	TotalCents        int64 `json:"total_cents"`
	DepositCents      int64 `json:"deposit_cents"`
	DepositPercentage int   `json:"deposit_percentage"`

	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
	ChangesDeadline *time.Time `json:"changes_deadline,omitempty"`
	DeliveryDate    *time.Time `json:"delivery_date,omitempty"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`

	Details       []models.SessionDetail       `json:"details,omitempty"`
	Photographers []models.SessionPhotographer `json:"photographers,omitempty"`
	Payments      []models.SessionPayment      `json:"payments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HistoryEntryResponse struct {
	FromStatus *models.SessionStatus `json:"from_status,omitempty"`
	ToStatus   models.SessionStatus  `json:"to_status"`
	Reason     string                `json:"reason,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	ChangedBy  uint                  `json:"changed_by"`
	ChangedAt  time.Time             `json:"changed_at"`
}

type TotalsResponse struct {
	SubtotalCents   int64 `json:"subtotal_cents"`
	TotalCents      int64 `json:"total_cents"`
	DepositCents    int64 `json:"deposit_cents"`
	BalanceDueCents int64 `json:"balance_due_cents"`
}

type AvailabilityResponse struct {
	ResourceID uint   `json:"resource_id"`
	Kind       string `json:"kind"`
	Date       string `json:"date"`
	Available  bool   `json:"available"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToSessionResponse(s *models.Session) SessionResponse {
	return SessionResponse{
		ID:                 s.ID,
		Code:               s.Code,
		Client:             s.ClientID,
		Kind:               s.Kind,
		Status:             s.Status,
		SessionDate:        s.SessionDate,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		Location:           s.Location,
		RoomID:             s.RoomID,
		EditorID:           s.EditorID,
		SubtotalCents:      s.SubtotalCents,
		TransportCents:     s.TransportCents,
		DiscountCents:      s.DiscountCents,
		TotalCents:         s.TotalCents,
		DepositCents:       s.DepositCents,
		DepositPercentage:  s.DepositPercentage,
		PaymentDeadline:    s.PaymentDeadline,
		ChangesDeadline:    s.ChangesDeadline,
		DeliveryDate:       s.DeliveryDate,
		CancellationReason: s.CancellationReason,
		CanceledAt:         s.CanceledAt,
		Details:            s.Details,
		Photographers:      s.Photographers,
		Payments:           s.Payments,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func ToSessionResponses(sessions []models.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, ToSessionResponse(&sessions[i]))
	}
	return out
}

func ToHistoryResponses(entries []models.SessionStatusHistory) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Reason:     e.Reason,
			Notes:      e.Notes,
			ChangedBy:  e.ChangedBy,
			ChangedAt:  e.ChangedAt,
		})
	}
	return out
}

func ToTotalsResponse(t ledger.Totals) TotalsResponse {
	return TotalsResponse{
		SubtotalCents:   t.SubtotalCents,
		TotalCents:      t.TotalCents,
		DepositCents:    t.DepositCents,
		BalanceDueCents: t.BalanceDueCents,
	}
}
