package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"ebox-messaging/internal/events"
	"ebox-messaging/pkg/logger"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// emitFeed publishes a change-feed envelope after a committed write.
// The durable copy is already in place, so a feed failure is logged and
// swallowed rather than propagated.
func emitFeed(ctx context.Context, pub events.Publisher, op events.Op, table string, record interface{}) {
	if pub == nil {
		return
	}
	if err := events.Emit(ctx, pub, op, table, record); err != nil {
		if l := logger.GetGlobalLogger(); l != nil {
			l.Errorf("change feed publish failed for %s: %v", table, err)
		}
	}
}
