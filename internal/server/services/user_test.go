package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/cryptox"
	"github.com/dmitrijs2005/toolshelf/internal/server/auth"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/toolshelf/internal/server/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// --- helpers ---

var fastParams = cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager([]byte("test-secret"), "HS256", time.Hour)
	require.NoError(t, err)
	return tm
}

func newUserService(t *testing.T, hasher PasswordHasher) (*UserService, *bun.DB) {
	t.Helper()
	db := testdb.New(t)
	if hasher == nil {
		hasher = cryptox.NewPasswordHasher(fastParams)
	}
	return NewUserService(db, repomanager.NewBunRepositoryManager(), hasher, newTokens(t), time.Second), db
}

func ada() UserInput {
	return UserInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "analytical"}
}

type fakeHasher struct {
	hashErr   error
	result    cryptox.Result
	verifyErr error
}

func (f *fakeHasher) Hash(string) (string, error) {
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return "$argon2id$fake", nil
}

func (f *fakeHasher) Verify(string, string) (cryptox.Result, error) {
	return f.result, f.verifyErr
}

type failingIssuer struct{}

func (failingIssuer) IssueAccessToken(string) (string, error) { return "", errors.New("sign failed") }

// --- tests ---

func TestSignup_CreatesViewerWithHashedPassword(t *testing.T) {
	svc, _ := newUserService(t, nil)

	u, err := svc.Signup(context.Background(), ada())
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleViewer, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "analytical", u.Password)
	assert.Contains(t, u.Password, "$argon2id$v=19$")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	_, err = svc.Signup(ctx, ada())
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	const n = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Signup(ctx, ada())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			assert.ErrorIs(t, err, common.ErrAlreadyExists)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestSignup_HashingFailure(t *testing.T) {
	svc, _ := newUserService(t, &fakeHasher{hashErr: common.ErrHashingFailure})

	_, err := svc.Signup(context.Background(), ada())
	require.ErrorIs(t, err, common.ErrHashingFailure)
}

func TestCreate_WithRole(t *testing.T) {
	svc, _ := newUserService(t, nil)

	u, err := svc.Create(context.Background(), ada(), models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, u.Role)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	u, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	tok, err := svc.Login(ctx, "ada@example.com", "analytical")
	require.NoError(t, err)

	claims, err := newTokens(t).Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidPassword)

	_, err = svc.Login(ctx, "nobody@example.com", "analytical")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogin_VerificationErrorIsNotMismatch(t *testing.T) {
	hasher := &fakeHasher{}
	svc, _ := newUserService(t, hasher)
	ctx := context.Background()

	_, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	hasher.result, hasher.verifyErr = cryptox.VerificationError, errors.New("malformed hash")
	_, err = svc.Login(ctx, "ada@example.com", "analytical")
	require.ErrorIs(t, err, common.ErrPasswordCheck)
	assert.NotErrorIs(t, err, common.ErrInvalidPassword)
}

func TestLogin_IssueFailure(t *testing.T) {
	db := testdb.New(t)
	svc := NewUserService(db, repomanager.NewBunRepositoryManager(), &fakeHasher{result: cryptox.Match}, failingIssuer{}, 0)
	ctx := context.Background()

	_, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "analytical")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign failed")
}

func TestGetListDelete(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	u, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Get(ctx, "not-a-uuid")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = svc.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, svc.Delete(ctx, u.ID))
	require.ErrorIs(t, svc.Delete(ctx, u.ID), common.ErrorNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "nope"), common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	u, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	in := UserInput{FirstName: "Augusta", LastName: "King", Email: "augusta@example.com", Password: "engine"}
	updated, err := svc.Update(ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "augusta@example.com", updated.Email)

	_, err = svc.Login(ctx, "augusta@example.com", "engine")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "augusta@example.com", "analytical")
	require.ErrorIs(t, err, common.ErrInvalidPassword)

	// keeping the own email is not a conflict
	in.FirstName = "Ada"
	_, err = svc.Update(ctx, u.ID, in)
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.NewString(), in)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_EmailTaken(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	other := ada()
	other.Email = "grace@example.com"
	g, err := svc.Signup(ctx, other)
	require.NoError(t, err)

	other.Email = "ada@example.com"
	_, err = svc.Update(ctx, g.ID, other)
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestSetRoleAndCount(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	u, err := svc.Signup(ctx, ada())
	require.NoError(t, err)

	n, err := svc.CountByRole(ctx, models.RoleOwner)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := svc.SetRole(ctx, u.ID, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, got.Role)

	n, err = svc.CountByRole(ctx, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.SetRole(ctx, uuid.NewString(), models.RoleOwner)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStorageFailureIsNotAbsence(t *testing.T) {
	svc, db := newUserService(t, nil)
	require.NoError(t, db.Close())

	_, err := svc.Signup(context.Background(), ada())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrAlreadyExists)

	_, err = svc.Login(context.Background(), "ada@example.com", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
