package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.Created.IsZero() {
		comment.Created = time.Now()
	}
	comment.Created = utc(comment.Created)

	result, err := db.ExecContext(ctx,
		`INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`,
		comment.Text, comment.ItemID, comment.AuthorID, comment.Created,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id

	author, err := db.GetUserByID(ctx, comment.AuthorID)
	if err != nil {
		return err
	}
	comment.AuthorName = author.Name
	return nil
}

func (db *DB) GetItemsComments(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if len(itemIDs) == 0 {
		return comments, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.text, c.item_id, c.author_id, u.name, c.created
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.item_id IN (`+placeholders(len(itemIDs))+`)
		 ORDER BY c.id`,
		int64Args(itemIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
