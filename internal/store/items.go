package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, type, status, title, description, category, location, keywords,
	image_ref, posted_by, contact_info, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateItem inserts a new item. ID, timestamps and version are assigned
// here; the caller sets status and every other field.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	keywords, err := json.Marshal(item.Keywords)
	if err != nil {
		return nil, fmt.Errorf("encoding keywords: %w", err)
	}
	if item.Keywords == nil {
		keywords = []byte("[]")
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		id, item.Type, item.Status, item.Title, item.Description, item.Category, item.Location,
		string(keywords), nullString(item.ImageRef), item.PostedBy, item.ContactInfo, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter model.ItemFilter) ([]*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveItemStatus writes item.Status if the stored version still equals
// item.Version, bumps the version and appends change to the status history.
// Everything happens in one transaction. A version mismatch yields an
// apperror CONFLICT and leaves the row untouched.
func SaveItemStatus(ctx context.Context, db *sql.DB, item *model.Item, change model.StatusChange) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		item.Status, now, item.ID, item.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, item.ID).Scan(&count); err != nil {
			return nil, fmt.Errorf("checking item existence: %w", err)
		}
		if count == 0 {
			return nil, apperror.NotFound("item", item.ID)
		}
		return nil, apperror.Conflict("item", item.ID)
	}

	changedAt := change.ChangedAt
	if changedAt.IsZero() {
		changedAt = now
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO status_history (item_id, from_status, to_status, changed_by, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, change.From, change.To, change.ChangedBy, changedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("recording status change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	return GetItem(ctx, db, item.ID)
}

// DeleteItem removes an item and its history. It reports whether a row existed.
func DeleteItem(ctx context.Context, db *sql.DB, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted rows: %w", err)
	}
	return n > 0, nil
}

// CountItemsByStatus returns per-status item counts.
func CountItemsByStatus(ctx context.Context, db *sql.DB) (*model.ItemStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	stats := &model.ItemStats{ByStatus: make(map[model.ItemStatus]int, len(model.AllStatuses))}
	for _, s := range model.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for rows.Next() {
		var status model.ItemStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning item count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func scanItem(s rowScanner) (*model.Item, error) {
	var item model.Item
	var keywords string
	var imageRef, contact sql.NullString
	err := s.Scan(&item.ID, &item.Type, &item.Status, &item.Title, &item.Description,
		&item.Category, &item.Location, &keywords, &imageRef, &item.PostedBy, &contact,
		&item.CreatedAt, &item.UpdatedAt, &item.Version)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywords), &item.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	item.ImageRef = imageRef.String
	if contact.Valid {
		v := contact.String
		item.ContactInfo = &v
	}
	return &item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
