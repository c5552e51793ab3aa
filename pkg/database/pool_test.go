package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := retryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestRetryBackoff_NegativeAttempt(t *testing.T) {
	d := retryBackoff(-1)
	assert.LessOrEqual(t, d, time.Duration(float64(retryBaseWait)*(1+retryJitterFraction)))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.True(t, IsConnectionError(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, IsConnectionError(errors.New("read: connection reset by peer")))
	assert.True(t, IsConnectionError(errors.New("unexpected EOF")))
	assert.False(t, IsConnectionError(errors.New("syntax error at or near \"SELEC\"")))
	assert.False(t, IsConnectionError(errors.New("duplicate key value violates unique constraint")))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert review: %w", errors.New("ERROR: duplicate key value (SQLSTATE 23505)"))))
	assert.False(t, IsUniqueViolation(errors.New("ERROR: check constraint (SQLSTATE 23514)")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.True(t, IsForeignKeyViolation(errors.New("ERROR: insert or update violates foreign key constraint (SQLSTATE 23503)")))
	assert.False(t, IsForeignKeyViolation(errors.New("ERROR: duplicate key value (SQLSTATE 23505)")))
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "parks", Password: "p@ss/word", DBName: "offroad", SSLMode: "disable"}
	assert.Equal(t, "postgres://parks:p%40ss%2Fword@db:5432/offroad?sslmode=disable", cfg.DSN())
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), nil, "op", IsConnectionError, func() error {
		calls++
		return errors.New("syntax error")
	})
	assert.EqualError(t, err, "syntax error")
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, nil, "op", func(error) bool { return true }, func() error {
		calls++
		return errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
