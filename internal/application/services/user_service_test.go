package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

var testAdmin = DefaultAdmin{Username: "admin", Password: "admin123", Name: "Administrator"}

func newTestUserService(t *testing.T) (*UserService, ports.UserRepository) {
	t.Helper()
	repo := newTestStore(t).Users()
	svc := NewUserService(repo, testAdmin, logger.NewNop())
	svc.now = fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return svc, repo
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, ports.CreateUserRequest{Username: "maria", Password: "s3cret", Name: "Maria"})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	require.NotNil(t, u.CreatedAt)

	stored, err := repo.GetByUsername(ctx, "maria")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestCreateUserRejectsMissingFieldsAndDuplicates(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, ports.CreateUserRequest{Username: "x", Name: "X"})
	assert.ErrorIs(t, err, entities.ErrMissingFields)

	_, err = svc.CreateUser(ctx, ports.CreateUserRequest{Username: "maria", Password: "a", Name: "Maria"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, ports.CreateUserRequest{Username: "maria", Password: "b", Name: "Other"})
	assert.ErrorIs(t, err, entities.ErrUsernameTaken)
}

func TestUpdateUserKeepsPasswordWhenBlank(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, ports.CreateUserRequest{Username: "maria", Password: "first", Name: "Maria"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, u.ID, ports.UpdateUserRequest{Name: ptr("Maria S."), Password: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Maria S.", updated.Name)
	require.NotNil(t, updated.UpdatedAt)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("first")))

	_, err = svc.UpdateUser(ctx, u.ID, ports.UpdateUserRequest{Password: ptr("second")})
	require.NoError(t, err)
	stored, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("second")))

	_, err = svc.UpdateUser(ctx, 12345, ports.UpdateUserRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}

func TestDeleteLastUserIsRejected(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	a, err := svc.CreateUser(ctx, ports.CreateUserRequest{Username: "a", Password: "p", Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateUser(ctx, ports.CreateUserRequest{Username: "b", Password: "p", Name: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, b.ID), entities.ErrLastUser)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}

func TestResetAdmin(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	created, err := svc.ResetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", created.Username)

	_, err = svc.UpdateUser(ctx, created.ID, ports.UpdateUserRequest{Password: ptr("changed")})
	require.NoError(t, err)

	reset, err := svc.ResetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, reset.ID)

	stored, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("admin123")))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
