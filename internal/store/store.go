// Package store persists accepted events and prioritized customers.
package store

import (
	"context"
	"time"

	"github.com/sells-group/prospector/internal/model"
)

// DefaultListLimit caps list queries when the caller passes a non-positive
// limit.
const DefaultListLimit = 100

// Store is the durable record sink. Each insert is a single transaction:
// either every record in the batch is stored or none is.
type Store interface {
	InsertEvents(ctx context.Context, events []model.CandidateEvent, rootURL string) (int, error)
	InsertCustomers(ctx context.Context, customers []model.PrioritizedCustomer) (int, error)

	// ListEvents returns stored events newest first. An empty rootURL lists
	// every batch.
	ListEvents(ctx context.Context, rootURL string, limit int) ([]model.StoredEvent, error)
	// ListCustomers returns stored customers newest first.
	ListCustomers(ctx context.Context, limit int) ([]model.StoredCustomer, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var eventColumns = []string{"name", "url", "category", "root_url", "create_time"}

var customerColumns = []string{
	"company_name",
	"industry",
	"revenue",
	"size",
	"stakeholder_name",
	"stakeholder_position",
	"stakeholder_email",
	"stakeholder_phone",
	"stakeholder_link",
	"reasoning",
	"create_time",
}

func eventRows(events []model.CandidateEvent, rootURL string, now time.Time) [][]any {
	rows := make([][]any, len(events))
	for i, e := range events {
		rows[i] = []any{e.Name, e.URL, string(e.Category), rootURL, now}
	}
	return rows
}

func customerRows(customers []model.PrioritizedCustomer, now time.Time) [][]any {
	rows := make([][]any, len(customers))
	for i, c := range customers {
		rows[i] = []any{
			c.CompanyName,
			c.Industry,
			c.Revenue,
			c.Size,
			c.StakeholderName,
			c.StakeholderPosition,
			c.StakeholderEmail,
			c.StakeholderPhone,
			c.StakeholderLink,
			c.Reasoning,
			now,
		}
	}
	return rows
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }
