package services

import (
	"context"
	"procurement/repository"
	"procurement/storage"
	"time"
)

// QuoteNumberGenerator issues per-company quote numbers from an atomic counter.
type QuoteNumberGenerator struct {
	seq    storage.SequenceStore
	prefix string
	retry  retryPolicy
	now    func() time.Time
}

// NewQuoteNumberGenerator creates a generator. maxAttempts bounds how often a contended
// increment is tried before ConflictError is returned.
func NewQuoteNumberGenerator(seq storage.SequenceStore, prefix string, maxAttempts int) *QuoteNumberGenerator {
	if prefix == "" {
		prefix = "QT"
	}
	return &QuoteNumberGenerator{
		seq:    seq,
		prefix: prefix,
		retry:  defaultRetryPolicy(maxAttempts),
		now:    time.Now,
	}
}

// Next returns the next quote number for the company. Numbers are unique per company
// and their sequence part never decreases.
func (g *QuoteNumberGenerator) Next(ctx context.Context, companyID string) (string, error) {
	if companyID == "" {
		return "", validationErr("company_id", "is required")
	}

	var value int64
	err := retryOnContention(ctx, "quote_number", g.retry, func() error {
		v, err := g.seq.NextSequence(ctx, companyID)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return repository.GenerateQuoteNumber(g.prefix, g.now(), value), nil
}
