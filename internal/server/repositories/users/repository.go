package users

import (
	"context"

	"github.com/dmitrijs2005/toolshelf/internal/server/models"
)

// Repository persists users. Lookups that match nothing return
// common.ErrorNotFound, writes that hit the unique email return
// common.ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role models.Role) (int, error)
}
