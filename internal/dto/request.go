package dto

import "time"

type CreateSessionRequest struct {
	ClientID             uint      `json:"client_id" validate:"required"`
	Kind                 string    `json:"kind" validate:"required,oneof=Studio External"`
	SessionDate          time.Time `json:"session_date" validate:"required"`
	StartTime            time.Time `json:"start_time" validate:"required"`
	EndTime              time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Location             string    `json:"location"`
	RoomID               *uint     `json:"room_id"`
	TransportCents       int64     `json:"transport_cents" validate:"gte=0"`
	DiscountCents        int64     `json:"discount_cents" validate:"gte=0"`
	DepositPercentage    *int      `json:"deposit_percentage" validate:"omitempty,gte=0,lte=100"`
	EstimatedEditingDays *int      `json:"estimated_editing_days" validate:"omitempty,gt=0"`
	ClientRequirements   string    `json:"client_requirements"`
}

type TransitionRequest struct {
	Target    string `json:"target" validate:"required"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
	Initiator string `json:"initiator" validate:"omitempty,oneof=Client Studio"`
}

type CancelSessionRequest struct {
	Reason    string `json:"reason" validate:"required"`
	Initiator string `json:"initiator" validate:"required,oneof=Client Studio"`
	Notes     string `json:"notes"`
}

type AssignRoomRequest struct {
	RoomID uint `json:"room_id" validate:"required"`
}

type AssignEditorRequest struct {
	EditorID uint `json:"editor_id" validate:"required"`
}

type AssignPhotographerRequest struct {
	PhotographerID uint      `json:"photographer_id" validate:"required"`
	Role           string    `json:"role" validate:"omitempty,oneof=Lead Assistant"`
	CoverageStart  time.Time `json:"coverage_start" validate:"required"`
	CoverageEnd    time.Time `json:"coverage_end" validate:"required,gtfield=CoverageStart"`
	Notes          string    `json:"notes"`
}

type ReassignPhotographerRequest struct {
	AssignPhotographerRequest
	OldPhotographerID uint `json:"old_photographer_id" validate:"required"`
}

type AddItemRequest struct {
	CatalogItemID uint `json:"catalog_item_id" validate:"required"`
	Quantity      int  `json:"quantity" validate:"required,gt=0"`
}

type RecordPaymentRequest struct {
	Type        string    `json:"type" validate:"required,oneof=Deposit Balance"`
	Method      string    `json:"method" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
	PaymentDate time.Time `json:"payment_date"`
	Reference   string    `json:"reference"`
	Notes       string    `json:"notes"`
}
