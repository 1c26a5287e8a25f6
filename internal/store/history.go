package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// ListStatusHistory returns the recorded transitions of an item, oldest first.
func ListStatusHistory(ctx context.Context, db *sql.DB, itemID string) ([]model.StatusChange, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, from_status, to_status, changed_by, changed_at
		 FROM status_history
		 WHERE item_id = ?
		 ORDER BY changed_at, id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing status history: %w", err)
	}
	defer rows.Close()

	var changes []model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.ItemID, &c.From, &c.To, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
