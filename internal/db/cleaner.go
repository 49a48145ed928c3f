package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

const deleteOrphanNotes = `
DELETE FROM notes
 WHERE NOT EXISTS (SELECT 1 FROM users WHERE users.id = notes.user_id)
`

// DeleteOrphanNotes removes notes whose owner no longer exists and returns
// how many were removed.
func DeleteOrphanNotes(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, deleteOrphanNotes)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartOrphanCleaner runs DeleteOrphanNotes every interval until ctx is done.
// A non-positive interval disables the cleaner.
func StartOrphanCleaner(ctx context.Context, db *sql.DB, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		log.Info("orphan note cleaner disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOrphans(ctx, db, log)
			}
		}
	}()
}

func sweepOrphans(ctx context.Context, db *sql.DB, log *zap.Logger) {
	removed, err := DeleteOrphanNotes(ctx, db)
	switch {
	case err != nil && ctx.Err() == nil:
		log.Error("failed to clean orphan notes", zap.Error(err))
	case removed > 0:
		log.Info("cleaned orphan notes", zap.Int64("removed", removed))
	}
}
