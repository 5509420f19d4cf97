package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const userColumns = `id, name, email`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email) VALUES (?, ?)`
	result, err := db.ExecContext(ctx, query, user.Name, user.Email)
	if err != nil {
		return wrapErr(err, "create user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	if err := db.GetContext(ctx, &user, query, id); err != nil {
		return nil, wrapErr(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	if err := db.SelectContext(ctx, &users, query); err != nil {
		return nil, wrapErr(err, "get users")
	}
	return users, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = ?, email = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, user.Name, user.Email, user.ID)
	if err != nil {
		return wrapErr(err, "update user")
	}
	return checkAffected(result, fmt.Sprintf("user %d", user.ID))
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return wrapErr(err, "delete user")
	}
	return checkAffected(result, fmt.Sprintf("user %d", id))
}
