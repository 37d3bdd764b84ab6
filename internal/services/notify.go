package services

import (
	"github.com/shopspring/decimal"

	applog "oakline/internal/log"
)

// OrderSnapshot is the post-commit view handed to the notification channel.
type OrderSnapshot struct {
	OrderID       string
	Source        Source
	CustomerName  string
	CustomerEmail string
	Status        string
	Total         decimal.Decimal
}

// Notifier delivers a best-effort order confirmation. Failures are logged by
// the coordinator and never affect the committed order.
type Notifier interface {
	Notify(s OrderSnapshot) error
}

// LogNotifier stands in for a mail/SMS gateway and just records the event.
type LogNotifier struct{}

func (LogNotifier) Notify(s OrderSnapshot) error {
	applog.Info(nil, "notify.order", map[string]any{
		"order_id": s.OrderID,
		"source":   string(s.Source),
		"total":    s.Total.String(),
	})
	return nil
}
