package database

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/models"

	"github.com/doug-martin/goqu/v9"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, available, owner_id, request_id) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Available,
		item.OwnerID,
		item.RequestID,
	)
	if err != nil {
		return wrapErr(err, "create item")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	if err := db.GetContext(ctx, &item, query, id); err != nil {
		return nil, wrapErr(err, fmt.Sprintf("item %d", id))
	}
	return &item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return wrapErr(err, "update item")
	}
	return checkAffected(result, fmt.Sprintf("item %d", item.ID))
}

func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return wrapErr(err, "delete item")
	}
	return checkAffected(result, fmt.Sprintf("item %d", id))
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	items := []*models.Item{}
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`
	if err := db.SelectContext(ctx, &items, query, ownerID, page.Limit(), page.Offset()); err != nil {
		return nil, wrapErr(err, "get items by owner")
	}
	return items, nil
}

// SearchItems matches text case-insensitively against name and description
// of available items.
func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	ds := db.dialect.From("items").
		Select(goqu.I("id"), goqu.I("name"), goqu.I("description"),
			goqu.I("available"), goqu.I("owner_id"), goqu.I("request_id")).
		Where(
			goqu.I("available").IsTrue(),
			goqu.Or(
				goqu.L(`go_lower("name") LIKE ? ESCAPE '\'`, pattern),
				goqu.L(`go_lower("description") LIKE ? ESCAPE '\'`, pattern),
			),
		).
		Order(goqu.I("id").Asc()).
		Limit(uint(page.Limit())).
		Offset(uint(page.Offset())).
		Prepared(true)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	items := []*models.Item{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, wrapErr(err, "search items")
	}
	return items, nil
}

func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	items := []*models.Item{}
	if len(requestIDs) == 0 {
		return items, nil
	}

	query, args, err := sqlxIn(`SELECT `+itemColumns+` FROM items WHERE request_id IN (?) ORDER BY id`, requestIDs)
	if err != nil {
		return nil, err
	}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, wrapErr(err, "get items by requests")
	}
	return items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
