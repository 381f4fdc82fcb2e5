package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableTxError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "serialization failure",
			err:       &pgconn.PgError{Code: "40001", Message: "could not serialize access"},
			retryable: true,
		},
		{
			name:      "deadlock broken by the server",
			err:       &pgconn.PgError{Code: "40P01", Message: "deadlock detected"},
			retryable: true,
		},
		{
			name:      "wrapped deadlock",
			err:       fmt.Errorf("failed to lock festival: %w", &pgconn.PgError{Code: "40P01"}),
			retryable: true,
		},
		{
			name:      "unique violation is not retried",
			err:       &pgconn.PgError{Code: "23505"},
			retryable: false,
		},
		{
			name:      "plain error",
			err:       errors.New("connection refused"),
			retryable: false,
		},
		{
			name:      "nil",
			err:       nil,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableTxError(tt.err))
		})
	}
}
