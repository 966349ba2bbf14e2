package services

import (
	"context"
	"procurement/models"
	"procurement/storage"
	"time"
)

// QuoteLifecycle moves quotes from SUBMITTED to APPROVED.
type QuoteLifecycle struct {
	store storage.Store
	now   func() time.Time
}

func NewQuoteLifecycle(store storage.Store) *QuoteLifecycle {
	return &QuoteLifecycle{store: store, now: time.Now}
}

// Approve checks and writes the transition under the store's row lock. Approving an
// approved quote is a StateError and leaves approved_at untouched.
func (l *QuoteLifecycle) Approve(ctx context.Context, tenant models.TenantContext, quoteID string) (models.Quote, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Quote{}, err
	}
	if quoteID == "" {
		return models.Quote{}, validationErr("quote_id", "is required")
	}

	quote, err := l.store.UpdateQuote(ctx, tenant.CompanyID, quoteID, func(q *models.Quote) error {
		if q.Status != models.QuoteStatusSubmitted {
			return &StateError{
				Entity: "quote",
				ID:     q.ID,
				From:   string(q.Status),
				To:     string(models.QuoteStatusApproved),
			}
		}
		at := l.now().UTC()
		q.Status = models.QuoteStatusApproved
		q.IsApproved = true
		q.ApprovedAt = &at
		return nil
	})
	if err != nil {
		return models.Quote{}, notFoundOr(err, "quote", quoteID)
	}
	quotesApproved.Inc()
	return quote, nil
}
