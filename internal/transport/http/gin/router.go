package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	redisrepo "github.com/ayushagrawal/box-office/internal/repository/redis"
	"github.com/ayushagrawal/box-office/internal/service"
	"github.com/ayushagrawal/box-office/internal/service/booking"
	"github.com/ayushagrawal/box-office/internal/service/holds"
	"github.com/ayushagrawal/box-office/internal/service/registry"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	counter *redisrepo.ExpiryCounter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/events", handleCreateEvent(svcs))
		v1.GET("/events/:id", handleGetEventStatus(svcs))

		v1.POST("/holds", handleCreateHold(svcs, idem))
		v1.GET("/holds/:id", handleGetHold(svcs))
		v1.DELETE("/holds/:id", handleCancelHold(svcs))
		v1.POST("/holds/:id/expire", handleExpireHold(svcs))

		v1.POST("/book", handleConfirmBooking(svcs))
		v1.GET("/bookings/:id", handleGetBooking(svcs))

		v1.GET("/metrics", handleMetrics(counter))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} EventResponse
// @Failure  400 {object} ErrorResponse
// @Router   /api/v1/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := svcs.Registry.CreateEvent(c.Request.Context(), req.Name, req.TotalSeats)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toEventResponse(event))
	}
}

// @Summary  Get event status with seat counters
// @Param    id  path  string  true  "Event ID (uuid)"
// @Success  200 {object} EventStatusResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/events/{id} [get]
func handleGetEventStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		counts, err := svcs.Registry.GetStatus(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, EventStatusResponse{
			EventID:   eventID.String(),
			Total:     counts.Total,
			Available: counts.Available,
			Held:      counts.Held,
			Booked:    counts.Booked,
		})
	}
}

// @Summary  Create hold (idempotent with Idempotency-Key)
// @Param    req body  CreateHoldRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} HoldResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "insufficient seats / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/v1/holds [post]
func handleCreateHold(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateHoldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		eventID, err := uuid.Parse(req.EventID)
		if err != nil {
			badRequest(c, "invalid event_id")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemHold(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				replayIdem(c, idemKey, payload)
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					replayIdem(c, idemKey, payload)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		ttl := time.Duration(req.TTLSec) * time.Second
		rlKey := "ip:" + c.ClientIP()

		hold, err := svcs.Holds.CreateHold(c.Request.Context(), eventID, req.Qty, ttl, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toHoldResponse(hold)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get hold
// @Param    id  path  string  true  "Hold ID (uuid)"
// @Success  200 {object} HoldResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/holds/{id} [get]
func handleGetHold(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		holdID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		hold, err := svcs.Holds.GetHold(c.Request.Context(), holdID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toHoldResponse(hold))
	}
}

// @Summary  Cancel hold
// @Param    id  path  string  true  "Hold ID (uuid)"
// @Success  200 {object} CancelHoldResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "hold not active"
// @Router   /api/v1/holds/{id} [delete]
func handleCancelHold(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		holdID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		hold, err := svcs.Holds.CancelHold(c.Request.Context(), holdID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CancelHoldResponse{
			HoldID: hold.ID.String(),
			Status: string(hold.Status),
		})
	}
}

// @Summary  Force-expire hold
// @Param    id  path  string  true  "Hold ID (uuid)"
// @Success  200 {object} CancelHoldResponse
// @Failure  409 {object} ErrorResponse "hold not active"
// @Router   /api/v1/holds/{id}/expire [post]
func handleExpireHold(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		holdID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		hold, err := svcs.Holds.ExpireHold(c.Request.Context(), holdID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CancelHoldResponse{
			HoldID: hold.ID.String(),
			Status: string(hold.Status),
		})
	}
}

// @Summary  Confirm booking (idempotent)
// @Param    req body  ConfirmBookingRequest true "payload"
// @Success  201 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "token mismatch / hold expired"
// @Router   /api/v1/book [post]
func handleConfirmBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConfirmBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		holdID, err := uuid.Parse(req.HoldID)
		if err != nil {
			badRequest(c, "invalid hold_id")
			return
		}

		token, err := uuid.Parse(req.ConfirmationToken)
		if err != nil {
			badRequest(c, "invalid confirmation_token")
			return
		}

		bk, err := svcs.Booking.Confirm(c.Request.Context(), holdID, token)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toBookingResponse(bk))
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		bk, err := svcs.Booking.GetBooking(c.Request.Context(), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toBookingResponse(bk))
	}
}

// @Summary  Service metrics
// @Success  200 {object} MetricsResponse
// @Router   /api/v1/metrics [get]
func handleMetrics(counter *redisrepo.ExpiryCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var total int64
		if counter != nil {
			total, _ = counter.Total(c.Request.Context())
		}

		c.JSON(http.StatusOK, MetricsResponse{ExpiredHoldsTotal: total})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func replayIdem(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// registry service
	case errors.Is(err, registry.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, registry.ErrInvalidSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	// holds service
	case errors.Is(err, holds.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, holds.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, holds.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "hold not found"})
	case errors.Is(err, holds.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "insufficient seats"})
	case errors.Is(err, holds.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "hold is not active"})
	case errors.Is(err, holds.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	// booking service
	case errors.Is(err, booking.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "hold not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrTokenMismatch):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid confirmation token"})
	case errors.Is(err, booking.ErrHoldExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "hold expired"})
	case errors.Is(err, booking.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "hold already finalized"})
	default:
		// infrastructure fault, not a business rejection
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
	}
}
