package admincli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/cryptox"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type ownerFlags struct {
	email         string
	firstName     string
	lastName      string
	passwordStdin bool
}

// ownerInput mirrors the signup rules so the account can log in over HTTP.
type ownerInput struct {
	Email     string `validate:"required,email"`
	FirstName string `validate:"required,min=2"`
	LastName  string `validate:"required,min=2"`
}

var ownerValidator = validator.New()

func (f ownerFlags) validate() error {
	err := ownerValidator.Struct(ownerInput{Email: f.email, FirstName: f.firstName, LastName: f.lastName})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Email":
			return fmt.Errorf("invalid email %q", f.email)
		case "FirstName":
			return errors.New("--first-name must be at least 2 characters long")
		case "LastName":
			return errors.New("--last-name must be at least 2 characters long")
		}
	}
	return err
}

func (a *app) createOwnerCmd() *cobra.Command {
	var f ownerFlags

	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create a user with the owner role",
		Long: `Creates an owner account in an already migrated database.
The password is read from the terminal without echo, or from the first line
of stdin with --password-stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}

			password, err := a.password(f.passwordStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)
			if len(password) == 0 {
				return errors.New("password must not be empty")
			}

			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			// no tokens are issued from the CLI
			us := services.NewUserService(db, repomanager.NewBunRepositoryManager(), cryptox.NewPasswordHasher(hasherParams), nil, 0)

			user, err := us.Create(ctx, services.UserInput{
				FirstName: f.firstName,
				LastName:  f.lastName,
				Email:     f.email,
				Password:  string(password),
			}, models.RoleOwner)
			if errors.Is(err, common.ErrAlreadyExists) {
				return fmt.Errorf("user with email %q already exists", f.email)
			}
			if err != nil {
				return fmt.Errorf("failed to create owner: %w", err)
			}

			fmt.Fprintln(a.out, "Owner created successfully!")
			fmt.Fprintf(a.out, "User ID: %s\n", user.ID)
			fmt.Fprintf(a.out, "Email: %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.email, "email", "", "owner email (required)")
	cmd.Flags().StringVar(&f.firstName, "first-name", "Toolshelf", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "Owner", "last name")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (a *app) password(fromStdin bool) ([]byte, error) {
	if fromStdin {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	fmt.Fprint(a.out, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
