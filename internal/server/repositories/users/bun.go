package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BunRepository struct {
	db  bun.IDB
	now func() time.Time
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db, now: time.Now}
}

func (r *BunRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BunRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.NewSelect().Model(user).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *BunRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.db.NewSelect().Model(user).Where("email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *BunRepository) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := r.db.NewSelect().Model(&users).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// Update writes the mutable profile columns. Role is changed only through
// UpdateRole.
func (r *BunRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = r.now().UTC()

	res, err := r.db.NewUpdate().Model(user).
		Column("first_name", "last_name", "email", "password", "active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *BunRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	res, err := r.db.NewUpdate().Model((*models.User)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *BunRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *BunRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	n, err := r.db.NewSelect().Model((*models.User)(nil)).Where("role = ?", role).Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", common.ErrAlreadyExists, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
