package tools

import (
	"context"

	"github.com/dmitrijs2005/toolshelf/internal/server/models"
)

// Repository persists the tool catalogue. Tool names are unique.
type Repository interface {
	Create(ctx context.Context, tool *models.Tool) error
	GetByID(ctx context.Context, id string) (*models.Tool, error)
	GetByName(ctx context.Context, name string) (*models.Tool, error)
	List(ctx context.Context) ([]models.Tool, error)
	Update(ctx context.Context, tool *models.Tool) error
	Delete(ctx context.Context, id string) error
}
