package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const itemColumns = `i.id, i.name, i.description, i.available, i.owner_id, i.request_id, i.created_at, i.updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var (
		it        models.Item
		requestID sql.NullInt64
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Available, &it.OwnerID,
		&requestID, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.RequestID = requestID.Int64
	return &it, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	now := utc(time.Now())
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, available, owner_id, request_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Available, item.OwnerID, nullableID(item.RequestID), now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	now := utc(time.Now())
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, available = ?, updated_at = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, now, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := db.GetItemByID(ctx, item.ID); err != nil {
			return err
		}
	}
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.owner_id = ? ORDER BY i.id LIMIT ? OFFSET ?`,
		ownerID, page.Limit(), page.Offset(),
	)
}

func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	pattern := likePattern(text)
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i
		 WHERE i.available = ? AND (LOWER(i.name) LIKE ? ESCAPE '!' OR LOWER(i.description) LIKE ? ESCAPE '!')
		 ORDER BY i.id LIMIT ? OFFSET ?`,
		true, pattern, pattern, page.Limit(), page.Offset(),
	)
}

func (db *DB) GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.request_id IN (`+placeholders(len(requestIDs))+`) ORDER BY i.id`,
		int64Args(requestIDs)...,
	)
}
