package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linemk/shop-api/internal/app/handlers"
	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/service"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestCurrentUserHandler(t *testing.T) {
	fakeSvc := &fakeUserService{user: &models.User{ID: 1, Name: "John", Email: "john@example.com", Role: models.RoleUser}}
	handler := handlers.CurrentUserHandler(newTestLogger(), fakeSvc)

	req := withUser(httptest.NewRequest("GET", "/api/users/me", nil), 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"john@example.com"`)

	// без userID в контексте
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateProfileHandler_JSON(t *testing.T) {
	fakeSvc := &fakeUserService{user: &models.User{ID: 1, Name: "New"}}
	handler := handlers.UpdateProfileHandler(newTestLogger(), fakeSvc)

	req := httptest.NewRequest("PUT", "/api/users/profile", bytes.NewBufferString(`{"name": "New"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withUser(req, 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "New", fakeSvc.profile.Name)
	assert.Nil(t, fakeSvc.profile.Avatar)

	req = httptest.NewRequest("PUT", "/api/users/profile", bytes.NewBufferString(`{"password": "weak"}`))
	req = withUser(req, 1, models.RoleUser)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChangePasswordHandler_WrongCurrent(t *testing.T) {
	handler := handlers.ChangePasswordHandler(newTestLogger(), &fakeUserService{err: service.ErrWrongPassword})

	req := httptest.NewRequest("PUT", "/api/users/profile/password",
		bytes.NewBufferString(`{"currentPassword": "old", "newPassword": "Secret1!"}`))
	req = withUser(req, 1, models.RoleUser)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message": "Current password is incorrect"}`, rr.Body.String())
}

func TestAdminUserHandlers(t *testing.T) {
	logger := newTestLogger()
	fakeSvc := &fakeUserService{user: &models.User{ID: 2, Role: models.RoleAdmin}}

	rr := httptest.NewRecorder()
	handlers.ListUsersHandler(logger, fakeSvc).ServeHTTP(rr, httptest.NewRequest("GET", "/api/auth/users", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest("PUT", "/api/auth/users/2", bytes.NewBufferString(`{"role": "superuser"}`))
	req = withURLParams(req, "id", "2")
	rr = httptest.NewRecorder()
	handlers.AdminUpdateUserHandler(logger, fakeSvc).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown role is rejected")

	req = httptest.NewRequest("PUT", "/api/auth/users/2", bytes.NewBufferString(`{"role": "admin"}`))
	req = withURLParams(req, "id", "2")
	rr = httptest.NewRecorder()
	handlers.AdminUpdateUserHandler(logger, fakeSvc).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	notFound := &fakeUserService{err: storage.ErrUserNotFound}
	req = withURLParams(httptest.NewRequest("DELETE", "/api/auth/users/9", nil), "id", "9")
	rr = httptest.NewRecorder()
	handlers.DeleteUserHandler(logger, notFound).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message": "User not found"}`, rr.Body.String())
}
