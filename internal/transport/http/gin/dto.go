package httpgin

import (
	"time"

	"github.com/ayushagrawal/box-office/internal/domain"
)

type CreateEventRequest struct {
	Name       string `json:"name" binding:"required"`
	TotalSeats int    `json:"total_seats" binding:"required,gt=0"`
}

type EventResponse struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	TotalSeats int       `json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
}

type EventStatusResponse struct {
	EventID   string `json:"event_id"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Held      int    `json:"held"`
	Booked    int    `json:"booked"`
}

type CreateHoldRequest struct {
	EventID string `json:"event_id" binding:"required,uuid"`
	Qty     int    `json:"qty" binding:"required,gt=0"`
	TTLSec  int    `json:"ttl_sec"`
}

type HoldResponse struct {
	HoldID            string    `json:"hold_id"`
	EventID           string    `json:"event_id"`
	Qty               int       `json:"qty"`
	Status            string    `json:"status"`
	ExpiresAt         time.Time `json:"expires_at"`
	ConfirmationToken string    `json:"confirmation_token"`
}

type ConfirmBookingRequest struct {
	HoldID            string `json:"hold_id" binding:"required,uuid"`
	ConfirmationToken string `json:"confirmation_token" binding:"required,uuid"`
}

type BookingResponse struct {
	BookingID string    `json:"booking_id"`
	HoldID    string    `json:"hold_id"`
	EventID   string    `json:"event_id"`
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

type CancelHoldResponse struct {
	HoldID string `json:"hold_id"`
	Status string `json:"status"`
}

type MetricsResponse struct {
	ExpiredHoldsTotal int64 `json:"expired_holds_total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		EventID:    e.ID.String(),
		Name:       e.Name,
		TotalSeats: e.TotalSeats,
		CreatedAt:  e.CreatedAt,
	}
}

func toHoldResponse(h domain.Hold) HoldResponse {
	return HoldResponse{
		HoldID:            h.ID.String(),
		EventID:           h.EventID.String(),
		Qty:               h.Qty,
		Status:            string(h.Status),
		ExpiresAt:         h.ExpiresAt,
		ConfirmationToken: h.Token.String(),
	}
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID: b.ID.String(),
		HoldID:    b.HoldID.String(),
		EventID:   b.EventID.String(),
		Qty:       b.Qty,
		CreatedAt: b.CreatedAt,
	}
}
