package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignupCreatesUserWithDefaults(t *testing.T) {
	users := newFakeUserRepo()
	handler := NewAuthHandler(users)

	body := `{"name":"Ramesh Kumar","phone":"9876543210","password":"s3cret123"}`
	c, rec := newTestContext(http.MethodPost, "/auth/signup", body, nil)
	require.NoError(t, handler.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Ready to help neighbors!", out.User.Bio)
	assert.True(t, out.User.LocationVisible)

	// Password is stored hashed and never serialized.
	stored, err := users.GetUserByPhone("9876543210")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret123")))
	assert.NotContains(t, rec.Body.String(), stored.Password)
}

func TestSignupRejectsDuplicatePhone(t *testing.T) {
	users := newFakeUserRepo()
	handler := NewAuthHandler(users)

	body := `{"name":"Ramesh Kumar","phone":"9876543210","password":"s3cret123"}`
	c, _ := newTestContext(http.MethodPost, "/auth/signup", body, nil)
	require.NoError(t, handler.Signup(c))

	c, _ = newTestContext(http.MethodPost, "/auth/signup", body, nil)
	err := handler.Signup(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, err.(*echo.HTTPError).Code)
}

func TestSignupValidatesPhone(t *testing.T) {
	handler := NewAuthHandler(newFakeUserRepo())

	body := `{"name":"Ramesh Kumar","phone":"12345","password":"s3cret123"}`
	c, _ := newTestContext(http.MethodPost, "/auth/signup", body, nil)
	err := handler.Signup(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
}

func TestSignIn(t *testing.T) {
	users := newFakeUserRepo()
	handler := NewAuthHandler(users)

	signupBody := `{"name":"Ramesh Kumar","phone":"9876543210","password":"s3cret123"}`
	c, _ := newTestContext(http.MethodPost, "/auth/signup", signupBody, nil)
	require.NoError(t, handler.Signup(c))

	c, _ = newTestContext(http.MethodPost, "/auth/signin", `{"phone":"9876543210","password":"wrong"}`, nil)
	err := handler.SignIn(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)

	c, _ = newTestContext(http.MethodPost, "/auth/signin", `{"phone":"9123456789","password":"s3cret123"}`, nil)
	err = handler.SignIn(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)

	c, rec := newTestContext(http.MethodPost, "/auth/signin", `{"phone":"9876543210","password":"s3cret123"}`, nil)
	require.NoError(t, handler.SignIn(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")
}
