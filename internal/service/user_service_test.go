package service

import (
	"context"
	"errors"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_CreateUser(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewUserService(repository.NewMemoryRepository(), &logger)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "  Alice ", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "Alice", u.Name)

	tests := []struct {
		name    string
		user    string
		email   string
		wantErr error
	}{
		{"blank name", " ", "x@example.com", domain.ErrInvalidRequest},
		{"missing email", "X", "", domain.ErrInvalidRequest},
		{"malformed email", "X", "not-an-email", domain.ErrInvalidEmail},
		{"display name form", "X", "X <x@example.com>", domain.ErrInvalidEmail},
		{"duplicate email", "Eve", "ALICE@example.com", domain.ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.user, tt.email)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	users, err := svc.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_UpdateUser(t *testing.T) {
	logger := zerolog.Nop()
	repo := repository.NewMemoryRepository()
	svc := NewUserService(repo, &logger)
	ctx := context.Background()

	alice := createTestUser(t, repo, "Alice", "alice@example.com")
	createTestUser(t, repo, "Bob", "bob@example.com")

	t.Run("NameOnly", func(t *testing.T) {
		u, err := svc.UpdateUser(ctx, alice.ID, models.UserPatch{Name: ptr("Alice L.")})
		require.NoError(t, err)
		assert.Equal(t, "Alice L.", u.Name)
		assert.Equal(t, "alice@example.com", u.Email)
	})

	t.Run("EmailOnly", func(t *testing.T) {
		u, err := svc.UpdateUser(ctx, alice.ID, models.UserPatch{Email: ptr("alice@shareit.dev")})
		require.NoError(t, err)
		assert.Equal(t, "alice@shareit.dev", u.Email)

		got, err := svc.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@shareit.dev", got.Email)
	})

	t.Run("SameEmailAgain", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, alice.ID, models.UserPatch{Email: ptr("alice@shareit.dev")})
		assert.NoError(t, err)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, alice.ID, models.UserPatch{Email: ptr("bob@example.com")})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		assert.ErrorIs(t, err, domain.ErrConflict)

		_, err = svc.UpdateUser(ctx, alice.ID, models.UserPatch{Name: ptr("")})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		_, err = svc.UpdateUser(ctx, alice.ID, models.UserPatch{Email: ptr("broken")})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)

		_, err = svc.UpdateUser(ctx, 999, models.UserPatch{Name: ptr("Ghost")})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	logger := zerolog.Nop()
	repo := new(mockRepo)
	svc := NewUserService(repo, &logger)
	ctx := context.Background()

	repo.On("DeleteUser", ctx, int64(1)).Return(nil).Once()
	repo.On("DeleteUser", ctx, int64(2)).Return(domain.ErrUserNotFound).Once()
	repo.On("DeleteUser", ctx, int64(3)).Return(errors.New("disk full")).Once()

	assert.NoError(t, svc.DeleteUser(ctx, 1))
	assert.ErrorIs(t, svc.DeleteUser(ctx, 2), domain.ErrNotFound)
	assert.False(t, domain.IsKnown(svc.DeleteUser(ctx, 3)))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}
