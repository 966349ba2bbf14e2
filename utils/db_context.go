package utils

import (
	"context"
	"time"
)

// Store call budgets. The caller's own deadline still wins when it is shorter.
const (
	// FastQueryTimeout covers single-row reads and writes by primary key.
	FastQueryTimeout = 5 * time.Second
	// DefaultQueryTimeout covers listings and short read-modify-write transactions.
	DefaultQueryTimeout = 15 * time.Second
	// SlowQueryTimeout covers the recommendation snapshot and history aggregates.
	SlowQueryTimeout = 45 * time.Second
)

// GetQueryContext bounds a store call by timeout. A nil parent is treated as Background.
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, FastQueryTimeout)
}

func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

func GetSlowQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, SlowQueryTimeout)
}
