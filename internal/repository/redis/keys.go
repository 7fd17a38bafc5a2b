package redis

import "github.com/google/uuid"

const ns = "boxoffice:v1"

func keyEvent(eventID uuid.UUID) string {
	return ns + ":event:" + eventID.String()
}

func keyHeld(eventID uuid.UUID) string {
	return keyEvent(eventID) + ":held"
}

func keyBooked(eventID uuid.UUID) string {
	return keyEvent(eventID) + ":booked"
}

func keyHold(holdID uuid.UUID) string {
	return ns + ":hold:" + holdID.String()
}

func keyBooking(bookingID uuid.UUID) string {
	return ns + ":booking:" + bookingID.String()
}

func keyBookingByHold(holdID uuid.UUID) string {
	return ns + ":booking:hold:" + holdID.String()
}

// keyHoldExpiry is the sorted set of active hold IDs scored by their
// expiry time; the sweeper range-scans it instead of walking every hold.
const keyHoldExpiry = ns + ":holds:expiry"

const keyExpiredTotal = ns + ":expired_holds_total"

// KeyEventStatus names the cached seat-count view for an event. It is
// written by the read-through cache and deleted on every mutation that
// touches the event's counters.
func KeyEventStatus(eventID uuid.UUID) string {
	return keyEvent(eventID) + ":status"
}

func keyRateLimit(suffix string) string {
	return ns + ":rl:" + suffix
}

func KeyIdemHold(eventID uuid.UUID, idemKey string) string {
	return ns + ":idem:holds:" + eventID.String() + ":" + idemKey
}

func channelEventsChanged() string {
	return ns + ":events:changed"
}
