package domain

import "time"

// Lifecycle event names delivered over the realtime channel.
const (
	EventNewRide       = "new-ride"
	EventRideConfirmed = "ride-confirmed"
	EventRideStarted   = "ride-started"
	EventRideEnded     = "ride-ended"
	EventRideCancelled = "ride-cancelled"
)

// Event is the envelope a lifecycle notification travels in once it leaves
// the process.
type Event struct {
	Name       string    `json:"event"`
	Address    string    `json:"address"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}
