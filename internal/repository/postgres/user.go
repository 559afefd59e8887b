package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/database"
)

// UserRepository checks user existence against the shared users table.
type UserRepository struct {
	pool database.DBTX
}

func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Exists reports whether a user with id exists. Ids that are not UUIDs
// cannot exist and are answered without a query.
func (r *UserRepository) Exists(ctx context.Context, id string) (_ bool, err error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	ctx, end := database.TraceQuery(ctx, "UserExists", query)
	defer func() { end(err) }()

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user %s exists: %w", id, err)
	}
	return exists, nil
}
