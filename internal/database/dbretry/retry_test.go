package dbretry_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/robalyx/antiraid/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = dbretry.Policy{
	MaxElapsedTime:  time.Second,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxRetries:      3,
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "no rows", err: sql.ErrNoRows, want: false},
		{name: "wrapped no rows", err: fmt.Errorf("lookup: %w", sql.ErrNoRows), want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "conn done", err: sql.ErrConnDone, want: true},
		{name: "reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "syntax", err: errors.New("syntax error at or near SELECT"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryableError(tt.err))
		})
	}
}

func TestOperationWithPolicy_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := dbretry.OperationWithPolicy(t.Context(), fastPolicy, func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("broken pipe")
		}

		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestOperationWithPolicy_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	attempts := 0

	_, err := dbretry.OperationWithPolicy(t.Context(), fastPolicy, func(context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("i/o timeout")
		}

		return 0, errBoom
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, attempts)
}

func TestOperationWithPolicy_GivesUp(t *testing.T) {
	t.Parallel()

	errTransient := errors.New("connection refused")
	attempts := 0

	_, err := dbretry.OperationWithPolicy(t.Context(), fastPolicy, func(context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "after retries")
	assert.Equal(t, int(fastPolicy.MaxRetries)+1, attempts)
}

func TestNoResult_PassesThroughNoRows(t *testing.T) {
	t.Parallel()

	err := dbretry.NoResult(t.Context(), func(context.Context) error {
		return sql.ErrNoRows
	})

	require.ErrorIs(t, err, sql.ErrNoRows)
}
