package queue

import (
	"time"

	"github.com/Yachtrental/rent-boats-app-sub000/internal/model"
)

// StatusQueue is the RabbitMQ queue every reservation status transition is
// published to.
const StatusQueue = "reservation.status"

// StatusEvent is the JSON payload published on every reservation status
// transition. Reason is set only for cancellations and lets the audit
// trail tell a deadline expiry apart from an explicit rejection.
type StatusEvent struct {
	ReservationID uint64                  `json:"reservation_id"`
	RequesterID   uint64                  `json:"requester_id"`
	Previous      model.ReservationStatus `json:"previous_status,omitempty"`
	Status        model.ReservationStatus `json:"status"`
	Reason        *model.CancelReason     `json:"reason,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}
