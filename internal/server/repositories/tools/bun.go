package tools

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

func (r *BunRepository) Create(ctx context.Context, tool *models.Tool) error {
	if tool.ID == "" {
		tool.ID = uuid.NewString()
	}
	now := r.now().UTC()
	tool.CreatedAt, tool.UpdatedAt = now, now

	if _, err := r.db.NewInsert().Model(tool).Exec(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BunRepository) GetByID(ctx context.Context, id string) (*models.Tool, error) {
	tool := &models.Tool{}
	if err := r.db.NewSelect().Model(tool).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return tool, nil
}

func (r *BunRepository) GetByName(ctx context.Context, name string) (*models.Tool, error) {
	tool := &models.Tool{}
	if err := r.db.NewSelect().Model(tool).Where("name = ?", name).Limit(1).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return tool, nil
}

func (r *BunRepository) List(ctx context.Context) ([]models.Tool, error) {
	tools := make([]models.Tool, 0)
	if err := r.db.NewSelect().Model(&tools).Order("name ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return tools, nil
}

func (r *BunRepository) Update(ctx context.Context, tool *models.Tool) error {
	tool.UpdatedAt = r.now().UTC()

	res, err := r.db.NewUpdate().Model(tool).
		Column("name", "description", "website", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *BunRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*models.Tool)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
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
