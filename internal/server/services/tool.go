package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/uptrace/bun"
)

type ToolInput struct {
	Name        string
	Description string
	Website     string
}

type ToolService struct {
	db          *bun.DB
	repomanager repomanager.RepositoryManager
	dbTimeout   time.Duration
}

func NewToolService(db *bun.DB, m repomanager.RepositoryManager, dbTimeout time.Duration) *ToolService {
	return &ToolService{db: db, repomanager: m, dbTimeout: dbTimeout}
}

func (s *ToolService) List(ctx context.Context) ([]models.Tool, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	return s.repomanager.Tools(s.db).List(ctx)
}

func (s *ToolService) Get(ctx context.Context, id string) (*models.Tool, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	return s.repomanager.Tools(s.db).GetByID(ctx, id)
}

// Create adds a tool. A taken name yields common.ErrAlreadyExists.
func (s *ToolService) Create(ctx context.Context, in ToolInput) (*models.Tool, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	repo := s.repomanager.Tools(s.db)
	if err := nameFree(ctx, repo.GetByName, in.Name, ""); err != nil {
		return nil, err
	}

	tool := &models.Tool{Name: in.Name, Description: in.Description, Website: in.Website}
	if err := repo.Create(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// Update replaces every field of tool id.
func (s *ToolService) Update(ctx context.Context, id string, in ToolInput) (*models.Tool, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	var tool *models.Tool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx bun.IDB) error {
		ctx, cancel := withTimeout(ctx, s.dbTimeout)
		defer cancel()

		repo := s.repomanager.Tools(tx)

		t, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.Name != in.Name {
			if err := nameFree(ctx, repo.GetByName, in.Name, t.ID); err != nil {
				return err
			}
		}

		t.Name, t.Description, t.Website = in.Name, in.Description, in.Website
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
		tool = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tool, nil
}

func (s *ToolService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	return s.repomanager.Tools(s.db).Delete(ctx, id)
}

func nameFree(ctx context.Context, lookup func(context.Context, string) (*models.Tool, error), name, selfID string) error {
	t, err := lookup(ctx, name)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case t.ID != selfID:
		return common.ErrAlreadyExists
	}
	return nil
}
