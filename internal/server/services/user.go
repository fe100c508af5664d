// Package services contains server-side business logic. UserService handles
// registration, login and user administration, ToolService the tool
// catalogue. Both return sentinel errors from internal/common and leave the
// HTTP mapping to the transport layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/cryptox"
	"github.com/dmitrijs2005/toolshelf/internal/dbx"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordHasher hashes and checks stored password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(stored, candidate string) (cryptox.Result, error)
}

// TokenIssuer mints access tokens for a user id.
type TokenIssuer interface {
	IssueAccessToken(subjectID string) (string, error)
}

// UserInput carries the profile fields accepted on signup, creation and
// update.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type UserService struct {
	db          *bun.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	dbTimeout   time.Duration
}

// NewUserService wires a UserService. dbTimeout bounds every persistence call;
// zero disables the bound.
func NewUserService(db *bun.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, dbTimeout time.Duration) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		dbTimeout:   dbTimeout,
	}
}

// Signup registers a new viewer. A taken email yields common.ErrAlreadyExists.
func (s *UserService) Signup(ctx context.Context, in UserInput) (*models.User, error) {
	return s.Create(ctx, in, models.RoleViewer)
}

// Create registers a user with the given role. Callers are responsible for
// checking that the requester may grant it.
func (s *UserService) Create(ctx context.Context, in UserInput, role models.Role) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if err := s.ensureEmailFree(ctx, repo.GetByEmail, in.Email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  hash,
		Active:    true,
		Role:      role,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// the unique index still catches a concurrent signup with the same email
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token.
//
// Unknown email yields common.ErrorNotFound, a wrong password
// common.ErrInvalidPassword. A stored hash that cannot be checked yields
// common.ErrPasswordCheck, which is an internal failure rather than a
// credential mismatch.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	res, err := s.hasher.Verify(user.Password, password)
	switch res {
	case cryptox.Match:
	case cryptox.Mismatch:
		return "", common.ErrInvalidPassword
	default:
		return "", fmt.Errorf("%w: %v", common.ErrPasswordCheck, err)
	}

	token, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).List(ctx)
}

// Get returns the user with the given id. Ids that are not UUIDs cannot
// exist and yield common.ErrorNotFound without a query.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// Update replaces the profile of user id and re-hashes the password.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx bun.IDB) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Email != in.Email {
			if err := s.ensureEmailFree(ctx, repo.GetByEmail, in.Email, u.ID); err != nil {
				return err
			}
		}

		u.FirstName = in.FirstName
		u.LastName = in.LastName
		u.Email = in.Email
		u.Password = hash

		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole changes the role of user id.
func (s *UserService) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).Delete(ctx, id)
}

// CountByRole reports how many users hold role.
func (s *UserService) CountByRole(ctx context.Context, role models.Role) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).CountByRole(ctx, role)
}

func (s *UserService) getByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// ensureEmailFree fails with common.ErrAlreadyExists when email belongs to a
// user other than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error), email, selfID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := lookup(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case u.ID != selfID:
		return common.ErrAlreadyExists
	}
	return nil
}

func (s *UserService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.dbTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
