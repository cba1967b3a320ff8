package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/service"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	u, err := repo.CreateUser(context.Background(), &models.User{
		Name:     "User",
		Email:    email,
		PassHash: hashed,
		Avatar:   models.Image{PublicID: "old.png", URL: "/uploads/old.png"},
	})
	assert.NoError(t, err)
	return u
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newFakeUserRepo()
	files := newFakeFiles()
	svc := service.NewUserService(newTestLogger(), repo, files)
	u := seedUser(t, repo, "a@example.com", "Secret1!")

	updated, err := svc.UpdateProfile(context.Background(), u.ID, service.ProfileInput{
		Name:     "New Name",
		Password: "Other2@x",
		Avatar:   &service.Upload{Name: "new.png", Content: strings.NewReader("png")},
	})
	assert.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "a@example.com", updated.Email, "empty email must keep the old one")
	assert.Equal(t, "img-1.png", updated.Avatar.PublicID)
	assert.Equal(t, []string{"old.png"}, files.deleted, "old avatar is removed after replacement")
	assert.NoError(t, bcrypt.CompareHashAndPassword(updated.PassHash, []byte("Other2@x")))
}

func TestUserService_UpdateProfile_NotFound(t *testing.T) {
	svc := service.NewUserService(newTestLogger(), newFakeUserRepo(), newFakeFiles())

	_, err := svc.UpdateProfile(context.Background(), 42, service.ProfileInput{Name: "x"})
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := service.NewUserService(newTestLogger(), repo, newFakeFiles())
	u := seedUser(t, repo, "a@example.com", "Secret1!")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, "wrong", "Other2@x")
	assert.True(t, errors.Is(err, service.ErrWrongPassword))

	err = svc.ChangePassword(ctx, u.ID, "Secret1!", "Other2@x")
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(repo.users[u.ID].PassHash, []byte("Other2@x")))
}

func TestUserService_AdminUpdateAndDelete(t *testing.T) {
	repo := newFakeUserRepo()
	files := newFakeFiles()
	svc := service.NewUserService(newTestLogger(), repo, files)
	u := seedUser(t, repo, "a@example.com", "Secret1!")
	ctx := context.Background()

	updated, err := svc.AdminUpdateUser(ctx, u.ID, service.AdminUserInput{Role: models.RoleAdmin})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Empty(t, files.deleted, "avatar is untouched without upload")

	users, err := svc.ListUsers(ctx)
	assert.NoError(t, err)
	assert.Len(t, users, 1)

	assert.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.Equal(t, []string{"old.png"}, files.deleted)

	err = svc.DeleteUser(ctx, u.ID)
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))
}
