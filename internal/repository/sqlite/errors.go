package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// mapError converts database/sql errors to domain errors. Context errors are
// wrapped but keep their identity.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	return &models.StoreError{Op: op, Err: err}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		// Rows written by other tools may carry any RFC 3339 variant.
		return time.Parse(time.RFC3339Nano, value)
	}
	return t, nil
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func optional(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
