// Package bootstrap provisions the first owner account so a fresh install
// has someone able to grant roles.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/logging"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
)

const generatedPasswordBytes = 16

// OwnerStore is the slice of the user service EnsureOwner needs.
type OwnerStore interface {
	CountByRole(ctx context.Context, role models.Role) (int, error)
	Create(ctx context.Context, in services.UserInput, role models.Role) (*models.User, error)
}

// Options describe the account to create.
type Options struct {
	Email     string
	FirstName string
	LastName  string
	// PasswordPath receives the generated password with mode 0600. It must
	// not exist yet. When empty the password is written to the log instead.
	PasswordPath string
}

// EnsureOwner creates an owner when none exists and opts.Email is set. It
// reports whether an account was created. Running it again is a no-op.
func EnsureOwner(ctx context.Context, store OwnerStore, opts Options, logger logging.Logger) (bool, error) {
	if opts.Email == "" {
		return false, nil
	}

	n, err := store.CountByRole(ctx, models.RoleOwner)
	if err != nil {
		return false, fmt.Errorf("count owners: %w", err)
	}
	if n > 0 {
		logger.Debug(ctx, "owner already present, skipping bootstrap", "owners", n)
		return false, nil
	}

	password, err := common.MakeRandHexString(generatedPasswordBytes)
	if err != nil {
		return false, fmt.Errorf("generate password: %w", err)
	}

	in := services.UserInput{
		FirstName: orDefault(opts.FirstName, "Toolshelf"),
		LastName:  orDefault(opts.LastName, "Owner"),
		Email:     opts.Email,
		Password:  password,
	}

	// claim the file before the row exists
	var f *os.File
	if opts.PasswordPath != "" {
		f, err = os.OpenFile(opts.PasswordPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return false, fmt.Errorf("open owner password file: %w", err)
		}
	}

	user, err := store.Create(ctx, in, models.RoleOwner)
	if err != nil {
		if f != nil {
			_ = f.Close()
			_ = os.Remove(opts.PasswordPath)
		}
		if errors.Is(err, common.ErrAlreadyExists) {
			return false, fmt.Errorf("bootstrap owner %s: email belongs to a non-owner account", opts.Email)
		}
		return false, fmt.Errorf("create owner: %w", err)
	}

	if f != nil {
		if err := writePassword(f, password); err != nil {
			logger.Error(ctx, "write owner password file failed, logging password instead",
				"error", err, "passwordFile", opts.PasswordPath)
		} else {
			logger.Info(ctx, "bootstrap owner created", "id", user.ID, "email", user.Email, "passwordFile", opts.PasswordPath)
			return true, nil
		}
	}

	logger.Warn(ctx, "bootstrap owner created; change this password", "id", user.ID, "email", user.Email, "password", password)
	return true, nil
}

func writePassword(f *os.File, password string) error {
	_, err := f.WriteString(password + "\n")
	return errors.Join(err, f.Close())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
