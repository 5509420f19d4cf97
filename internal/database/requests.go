package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const requestColumns = `id, description, requester_id, created`

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	query := `INSERT INTO item_requests (description, requester_id, created) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, query, request.Description, request.RequesterID, dbTime(request.Created))
	if err != nil {
		return wrapErr(err, "create request")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	query := `SELECT ` + requestColumns + ` FROM item_requests WHERE id = ?`
	if err := db.GetContext(ctx, &request, query, id); err != nil {
		return nil, wrapErr(err, fmt.Sprintf("request %d", id))
	}
	request.Created = request.Created.UTC()
	return &request, nil
}

func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM item_requests
			  WHERE requester_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`
	return db.selectRequests(ctx, query, requesterID, page.Limit(), page.Offset())
}

func (db *DB) GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM item_requests
			  WHERE requester_id <> ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`
	return db.selectRequests(ctx, query, requesterID, page.Limit(), page.Offset())
}

func (db *DB) selectRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	requests := []*models.ItemRequest{}
	if err := db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, wrapErr(err, "get requests")
	}
	for _, r := range requests {
		r.Created = r.Created.UTC()
	}
	return requests, nil
}
