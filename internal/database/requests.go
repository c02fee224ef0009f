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

const requestColumns = `id, description, requester_id, created`

func scanRequest(row interface{ Scan(...any) error }) (*models.ItemRequest, error) {
	var r models.ItemRequest
	if err := row.Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	if request.Created.IsZero() {
		request.Created = time.Now()
	}
	request.Created = utc(request.Created)

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_requests (description, requester_id, created) VALUES (?, ?, ?)`,
		request.Description, request.RequesterID, request.Created,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to create item request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	row := db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM item_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item request: %w", err)
	}
	return r, nil
}

func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM item_requests WHERE requester_id = ? ORDER BY created DESC, id DESC`,
		requesterID,
	)
}

func (db *DB) GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM item_requests WHERE requester_id <> ?
		 ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
		requesterID, page.Limit(), page.Offset(),
	)
}
