package models

import "time"

type SessionKind string

const (
	KindStudio   SessionKind = "Studio"
	KindExternal SessionKind = "External"
)

type PaymentType string

const (
	PaymentDeposit PaymentType = "Deposit"
	PaymentBalance PaymentType = "Balance"
	PaymentRefund  PaymentType = "Refund"
)

type PhotographerRole string

const (
	RoleLead      PhotographerRole = "Lead"
	RoleAssistant PhotographerRole = "Assistant"
)

type CancellationInitiator string

const (
	InitiatorClient CancellationInitiator = "Client"
	InitiatorStudio CancellationInitiator = "Studio"
)

// Session is the booking aggregate. Status is mutated exclusively through
// the session service's transition path; sessions are never deleted,
// cancellation is a terminal status.
type Session struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(36);uniqueIndex;not null" json:"code"`

	ClientID uint          `gorm:"not null" json:"client_id"`
	Kind     SessionKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Status   SessionStatus `gorm:"type:varchar(50);not null;default:'Request'" json:"status"`

	SessionDate time.Time `gorm:"type:date;not null" json:"session_date"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`

	// Exactly one of Location (External) and RoomID (Studio) is set.
	Location string `json:"location,omitempty"`
	RoomID   *uint  `json:"room_id,omitempty"`

	EditorID *uint `json:"editor_id,omitempty"`

	// Money in integer cents.
	SubtotalCents     int64 `gorm:"not null;default:0" json:"subtotal_cents"`
	TransportCents    int64 `gorm:"not null;default:0" json:"transport_cents"`
	DiscountCents     int64 `gorm:"not null;default:0" json:"discount_cents"`
	TotalCents        int64 `gorm:"not null;default:0" json:"total_cents"`
	DepositCents      int64 `gorm:"not null;default:0" json:"deposit_cents"`
	DepositPercentage int   `gorm:"not null;default:50" json:"deposit_percentage"`

	EstimatedEditingDays int        `gorm:"not null;default:0" json:"estimated_editing_days"`
	PaymentDeadline      *time.Time `gorm:"type:date" json:"payment_deadline,omitempty"`
	ChangesDeadline      *time.Time `gorm:"type:date" json:"changes_deadline,omitempty"`
	DeliveryDate         *time.Time `gorm:"type:date" json:"delivery_date,omitempty"`

	EditingStartedAt   *time.Time `json:"editing_started_at,omitempty"`
	EditingCompletedAt *time.Time `json:"editing_completed_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`

	ClientRequirements string `json:"client_requirements,omitempty"`
	InternalNotes      string `json:"internal_notes,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`

	CreatedBy  uint       `gorm:"not null" json:"created_by"`
	CanceledBy *uint      `json:"canceled_by,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Details       []SessionDetail       `gorm:"foreignKey:SessionID" json:"details,omitempty"`
	Photographers []SessionPhotographer `gorm:"foreignKey:SessionID" json:"photographers,omitempty"`
	Payments      []SessionPayment      `gorm:"foreignKey:SessionID" json:"payments,omitempty"`
}

// SessionDetail is a line item frozen at add time. Name, code and price are
// denormalized copies; ReferenceID is informational only and never used for
// live price lookups. Details are removed and re-added, never mutated.
type SessionDetail struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	SessionID uint `gorm:"not null;index" json:"session_id"`

	ReferenceID   *uint  `json:"reference_id,omitempty"`
	ReferenceType string `gorm:"type:varchar(20)" json:"reference_type,omitempty"`

	ItemCode        string `gorm:"type:varchar(50);not null" json:"item_code"`
	ItemName        string `gorm:"type:varchar(100);not null" json:"item_name"`
	ItemDescription string `json:"item_description,omitempty"`

	Quantity          int   `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents    int64 `gorm:"not null" json:"unit_price_cents"`
	LineSubtotalCents int64 `gorm:"not null" json:"line_subtotal_cents"`

	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionPhotographer binds one staff member to one session with a coverage
// interval that brackets the session time (travel buffer included).
type SessionPhotographer struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SessionID      uint             `gorm:"not null;index" json:"session_id"`
	PhotographerID uint             `gorm:"not null;index" json:"photographer_id"`
	Role           PhotographerRole `gorm:"type:varchar(20);not null;default:'Assistant'" json:"role"`

	CoverageStart time.Time `gorm:"not null" json:"coverage_start"`
	CoverageEnd   time.Time `gorm:"not null" json:"coverage_end"`

	Attended   bool       `gorm:"not null;default:false" json:"attended"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`

	AssignedBy uint      `gorm:"not null" json:"assigned_by"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}

// SessionPayment is a financial event. Refund amounts are stored positive
// and subtracted by the ledger. A verified payment is immutable.
type SessionPayment struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	SessionID uint `gorm:"not null;index" json:"session_id"`

	Type        PaymentType `gorm:"type:varchar(20);not null" json:"type"`
	Method      string      `gorm:"type:varchar(50);not null" json:"method"`
	AmountCents int64       `gorm:"not null" json:"amount_cents"`
	PaymentDate time.Time   `gorm:"type:date;not null" json:"payment_date"`

	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedBy *uint      `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	Reference string `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`

	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStatusHistory is the append-only audit log of transitions. One row
// is written in the same transaction as each status change; replaying the
// rows in order reconstructs the current status.
type SessionStatusHistory struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	SessionID uint `gorm:"not null;index" json:"session_id"`

	FromStatus *SessionStatus `gorm:"type:varchar(50)" json:"from_status,omitempty"`
	ToStatus   SessionStatus  `gorm:"type:varchar(50);not null" json:"to_status"`

	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`

	ChangedBy uint      `gorm:"not null" json:"changed_by"`
	ChangedAt time.Time `gorm:"autoCreateTime" json:"changed_at"`
}
