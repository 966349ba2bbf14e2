package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a new random UUID string for entity and request ids.
func NewID() string {
	return uuid.NewString()
}

// GenerateQuoteNumber formats a quote number as PREFIX-YYYYMMDD-000042.
func GenerateQuoteNumber(prefix string, issuedAt time.Time, sequenceNumber int64) string {
	formattedPrefix := strings.ToUpper(strings.TrimSpace(prefix))

	// Six digits keeps numbers lexically ordered up to a million quotes per company
	formattedSequence := fmt.Sprintf("%06d", sequenceNumber)

	return formattedPrefix + "-" + issuedAt.UTC().Format("20060102") + "-" + formattedSequence
}

// ParseQuoteSequence extracts the counter value from a quote number.
func ParseQuoteSequence(quoteNumber string) (int64, error) {
	idx := strings.LastIndex(quoteNumber, "-")
	if idx < 0 || idx == len(quoteNumber)-1 {
		return 0, fmt.Errorf("invalid quote number format: %q", quoteNumber)
	}

	seq, err := strconv.ParseInt(quoteNumber[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quote sequence: %w", err)
	}
	return seq, nil
}
