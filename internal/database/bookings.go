package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.start_time, b.end_time, b.item_id, i.name, i.owner_id,
		b.booker_id, u.name, b.status, b.created_at, b.updated_at, b.version
	FROM bookings b
	JOIN items i ON i.id = b.item_id
	JOIN users u ON u.id = b.booker_id`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	if err := row.Scan(&b.ID, &b.Start, &b.End, &b.ItemID, &b.ItemName, &b.OwnerID,
		&b.BookerID, &b.BookerName, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version); err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := utc(time.Now())
	result, err := db.ExecContext(ctx,
		`INSERT INTO bookings (start_time, end_time, item_id, booker_id, status, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		utc(booking.Start), utc(booking.End), booking.ItemID, booking.BookerID, booking.Status, now, now, 1,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Invalid("booking references a missing item or user")
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	created, err := db.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	*booking = *created
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBookingStatusWithVersion writes the status only if nobody changed the
// booking since version was read.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, utc(time.Now()), id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return domain.ErrConcurrentModification
	}
	return nil
}

func (db *DB) FindOverlapping(ctx context.Context, itemID, excludeID int64, start, end time.Time) ([]*models.Booking, error) {
	s, e := utc(start), utc(end)
	return db.queryBookings(ctx, bookingSelect+`
		WHERE b.item_id = ? AND b.id <> ?
		  AND ((b.start_time >= ? AND b.start_time <= ?) OR (b.end_time >= ? AND b.end_time <= ?))
		ORDER BY b.start_time DESC, b.id DESC`,
		itemID, excludeID, s, e, s, e,
	)
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.BookerID != 0 {
		where = append(where, "b.booker_id = ?")
		args = append(args, filter.BookerID)
	}
	if filter.OwnerID != 0 {
		where = append(where, "i.owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	now := utc(filter.Now)
	switch filter.State {
	case models.StateAll:
	case models.StateCurrent:
		where = append(where, "b.start_time < ? AND b.end_time > ?")
		args = append(args, now, now)
	case models.StatePast:
		where = append(where, "b.end_time < ?")
		args = append(args, now)
	case models.StateFuture:
		where = append(where, "b.start_time > ?")
		args = append(args, now)
	case models.StateWaiting:
		where = append(where, "b.status = ?")
		args = append(args, models.StatusWaiting)
	case models.StateRejected:
		where = append(where, "b.status = ?")
		args = append(args, models.StatusRejected)
	default:
		return []*models.Booking{}, nil
	}

	query := bookingSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.start_time DESC, b.id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) GetItemsBookings(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return []*models.Booking{}, nil
	}
	return db.queryBookings(ctx,
		bookingSelect+` WHERE b.item_id IN (`+placeholders(len(itemIDs))+`) ORDER BY b.start_time DESC, b.id DESC`,
		int64Args(itemIDs)...,
	)
}

func (db *DB) HasFinishedBooking(ctx context.Context, itemID, bookerID int64, before time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE item_id = ? AND booker_id = ? AND status = ? AND end_time < ?`,
		itemID, bookerID, models.StatusApproved, utc(before),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}
