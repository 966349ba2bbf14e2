package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "try again".
var contentionCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23505": true, // unique_violation
}

// translateError maps driver and ORM errors onto ErrNotFound and ErrContention.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && contentionCodes[pqErr.Code] {
		return fmt.Errorf("%w: %s (%s)", ErrContention, pqErr.Message, pqErr.Code)
	}
	return err
}
