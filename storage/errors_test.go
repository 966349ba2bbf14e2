package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("connection refused")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "record not found", in: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "wrapped record not found", in: fmt.Errorf("load: %w", gorm.ErrRecordNotFound), want: ErrNotFound},
		{name: "serialization failure", in: &pq.Error{Code: "40001", Message: "could not serialize"}, want: ErrContention},
		{name: "deadlock", in: &pq.Error{Code: "40P01"}, want: ErrContention},
		{name: "lock timeout", in: &pq.Error{Code: "55P03"}, want: ErrContention},
		{name: "unique violation", in: &pq.Error{Code: "23505"}, want: ErrContention},
		{name: "check violation passes through", in: &pq.Error{Code: "23514"}, want: nil},
		{name: "other error passes through", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Equal(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
