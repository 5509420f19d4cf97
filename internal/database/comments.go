package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, comment.Text, comment.ItemID, comment.AuthorID, dbTime(comment.Created))
	if err != nil {
		return wrapErr(err, "create comment")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (db *DB) GetCommentsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if len(itemIDs) == 0 {
		return comments, nil
	}

	query, args, err := sqlxIn(`
		SELECT c.id, c.text, c.item_id, c.author_id, c.created, u.name AS author_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.item_id IN (?)
		ORDER BY c.id`, itemIDs)
	if err != nil {
		return nil, err
	}
	if err := db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, wrapErr(err, "get comments")
	}
	for _, c := range comments {
		c.Created = c.Created.UTC()
	}
	return comments, nil
}
