package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Feedback struct {
	FeedbackID   uint64      `db:"feedback_id"`
	CustomerID   uint64      `db:"customer_id"`
	LogID        uint64      `db:"log_id"`
	Rating       int         `db:"rating"`
	Comments     null.String `db:"comments"`
	FeedbackTime time.Time   `db:"feedback_time"`
}
