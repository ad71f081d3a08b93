package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"haven/internal/config"
	"haven/internal/database"
	"haven/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The metrics middleware registers collectors on the process-global
// Prometheus registry, so the whole package shares one Server. Tests that
// hit the API use distinct usernames to stay out of each other's way.
var (
	integrationOnce sync.Once
	integrationApp  *fiber.App
	integrationDB   *gorm.DB
	integrationErr  error
)

func testServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	integrationOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open("file:servertest?mode=memory&cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			integrationErr = err
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			integrationErr = err
			return
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.AutoMigrate(database.AllModels()...); err != nil {
			integrationErr = err
			return
		}

		cfg := &config.Config{
			Env:       "test",
			Port:      "0",
			DBDriver:  "sqlite",
			JWTSecret: "integration-test-secret",
			BaseURL:   "http://localhost:8200",
		}
		srv, err := NewServerWithDeps(cfg, db, nil)
		if err != nil {
			integrationErr = err
			return
		}

		app := fiber.New()
		srv.SetupMiddleware(app)
		srv.SetupRoutes(app)

		integrationApp = app
		integrationDB = db
	})
	require.NoError(t, integrationErr)
	return integrationApp, integrationDB
}

// doJSON performs a request against the test app, JSON-encoding body when
// present and attaching the bearer token when non-empty.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin signs a user up through the API, activates the account
// directly in the database (the activation token only leaves through email),
// and returns a session token from a real login.
func registerAndLogin(t *testing.T, app *fiber.App, db *gorm.DB, username string) string {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/users", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "Sup3rSecret!Pass",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	err := db.Model(&models.User{}).Where("username = ?", username).
		Updates(map[string]any{"is_active": true, "is_verified": true}).Error
	require.NoError(t, err)

	resp = doJSON(t, app, "POST", "/api/users/login", "", fiber.Map{
		"email":    username + "@example.com",
		"password": "Sup3rSecret!Pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}
