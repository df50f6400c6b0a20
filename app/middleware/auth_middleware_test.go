package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/dti-portal/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
	Data map[string]any `json:"data"`
}

func newProtectedApp(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(15*time.Minute, time.Hour, "dti-portal", "dti-portal-api", false, "", "", "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	app := fiber.New()
	m := NewAuthMiddleware(tokens)
	app.Get("/me", m.Authenticate(), func(c fiber.Ctx) error {
		accountID, ok := GetAccountIDFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		claims, _ := GetTokenClaimsFromContext(c)
		return c.JSON(fiber.Map{"data": fiber.Map{"account_id": accountID, "role": claims.Role}})
	})
	return app, tokens
}

func call(t *testing.T, app *fiber.App, authorization string) (int, errorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthenticate(t *testing.T) {
	app, tokens := newProtectedApp(t)
	access, refresh, err := tokens.GenerateTokens(42, "collection_agent")
	require.NoError(t, err)

	t.Run("MissingHeader", func(t *testing.T) {
		status, body := call(t, app, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", body.Error.Code)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		status, body := call(t, app, "Basic abc")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "INVALID_AUTHORIZATION_FORMAT", body.Error.Code)
	})

	t.Run("Garbage", func(t *testing.T) {
		status, body := call(t, app, "Bearer not-a-jwt")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", body.Error.Code)
	})

	t.Run("RefreshTokenRejected", func(t *testing.T) {
		status, body := call(t, app, "Bearer "+refresh)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", body.Error.Code)
	})

	t.Run("Valid", func(t *testing.T) {
		status, body := call(t, app, "Bearer "+access)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, float64(42), body.Data["account_id"])
		assert.Equal(t, "collection_agent", body.Data["role"])
	})

	t.Run("Revoked", func(t *testing.T) {
		require.NoError(t, tokens.RevokeToken(access))
		status, body := call(t, app, "Bearer "+access)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_REVOKED", body.Error.Code)
	})
}
