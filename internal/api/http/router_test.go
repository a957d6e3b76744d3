package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qa327/ticket-marketplace/internal/api/http/handlers"
	"github.com/qa327/ticket-marketplace/internal/auth"
	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/events"
	"github.com/qa327/ticket-marketplace/internal/observability"
	"github.com/qa327/ticket-marketplace/internal/repository"
	"github.com/qa327/ticket-marketplace/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *observability.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	events.SubscribeAll(dispatcher, metrics.CountEvent)
	store := repository.NewMemoryStore()
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
	}, service.AuthDependencies{UserRepo: store.Users(), Sessions: auth.NewMemorySessionStore(), Logger: logger})
	marketplace := service.NewMarketplaceService(service.MarketplaceDependencies{
		Store:      store,
		Auth:       authService,
		Dispatcher: dispatcher,
		Logger:     logger,
		Rules: config.MarketplaceConfig{
			InitialBalance: 5000,
			ServiceFee:     decimal.RequireFromString("1.35"),
			Tax:            decimal.RequireFromString("1.05"),
		},
		Clock: func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	app := NewApp("ticket-marketplace-test", logger, metrics, 5*time.Second, RouteConfig{
		Health:         handlers.NewHealthHandler("ticket-marketplace-test", "test", nil, nil, metrics),
		Users:          handlers.NewUsersHandler(authService, marketplace),
		Tickets:        handlers.NewTicketsHandler(marketplace),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})
	return app, metrics
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, app *fiber.App, email, name string) string {
	t.Helper()
	status, _ := do(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": name, "password": "Ab1!ab", "password2": "Ab1!ab",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "Ab1!ab",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Auth.Token)
	return data.Auth.Token
}

func TestRegisterAndLoginErrors(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@b.com", "name": "Alice", "password": "Ab1!ab", "password2": "nope",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PASSWORD_MISMATCH", env.Error.Code)
	assert.Equal(t, "The passwords do not match", env.Error.Message)

	registerAndLogin(t, app, "a@b.com", "Alice")

	status, env = do(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@b.com", "name": "Alice", "password": "Ab1!ab", "password2": "Ab1!ab",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_EMAIL", env.Error.Code)

	status, env = do(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "Ab1!ac",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "login failed", env.Error.Message)

	status, env = do(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "", "password": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BLANK_CREDENTIALS", env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/tickets", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = do(t, app, http.MethodGet, "/me", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSellBuyUpdateFlow(t *testing.T) {
	app, metrics := newTestApp(t)
	seller := registerAndLogin(t, app, "s@b.com", "Seller")
	buyer := registerAndLogin(t, app, "b@b.com", "Buyer")

	status, env := do(t, app, http.MethodPost, "/tickets/sell", seller, map[string]any{
		"name": "t1", "quantity": 2, "price": 100, "date": "20991231",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env = do(t, app, http.MethodPost, "/tickets/sell", seller, map[string]any{
		"name": "t2", "quantity": 2, "price": 5, "date": "20991231",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Ticket price outside of valid range", env.Error.Message)

	status, env = do(t, app, http.MethodPost, "/tickets/buy", buyer, map[string]any{"name": "t1", "quantity": 3}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", env.Error.Code)

	headers := map[string]string{handlers.IdempotencyKeyHeader: "order-1"}
	status, env = do(t, app, http.MethodPost, "/tickets/buy", buyer, map[string]any{"name": "t1", "quantity": 1}, headers)
	require.Equal(t, http.StatusCreated, status)
	var purchase struct {
		Cost     string `json:"cost"`
		Charged  int64  `json:"charged"`
		Balance  int64  `json:"balance"`
		Replayed bool   `json:"replayed"`
		Ticket   struct {
			Quantity int `json:"quantity"`
		} `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &purchase))
	assert.Equal(t, "141.75", purchase.Cost)
	assert.Equal(t, int64(142), purchase.Charged)
	assert.Equal(t, int64(4858), purchase.Balance)
	assert.Equal(t, 1, purchase.Ticket.Quantity)

	status, env = do(t, app, http.MethodPost, "/tickets/buy", buyer, map[string]any{"name": "t1", "quantity": 1}, headers)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &purchase))
	assert.True(t, purchase.Replayed)
	assert.Equal(t, 1, purchase.Ticket.Quantity)

	status, env = do(t, app, http.MethodPost, "/tickets/update", buyer, map[string]any{
		"name": "t1", "quantity": 9, "price": 50, "date": "20991231",
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_TICKET_OWNER", env.Error.Code)

	status, _ = do(t, app, http.MethodPost, "/tickets/update", seller, map[string]any{
		"name": "t1", "quantity": 9, "price": 50, "date": "20991231",
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodGet, "/tickets/t1/history", seller, nil, nil)
	require.Equal(t, http.StatusOK, status)
	var history []struct {
		ChangeType string `json:"change_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "LISTED", history[0].ChangeType)
	assert.Equal(t, "PURCHASED", history[1].ChangeType)
	assert.Equal(t, "UPDATED", history[2].ChangeType)

	status, env = do(t, app, http.MethodGet, "/me", buyer, nil, nil)
	require.Equal(t, http.StatusOK, status)
	var profile struct {
		User struct {
			Balance int64 `json:"balance"`
		} `json:"user"`
		Tickets []struct {
			Quantity int `json:"quantity"`
			Price    int `json:"price"`
		} `json:"tickets"`
		Purchases []struct {
			Quantity int    `json:"quantity"`
			Cost     string `json:"cost"`
			Charged  int64  `json:"charged"`
		} `json:"purchases"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, int64(4858), profile.User.Balance)
	require.Len(t, profile.Tickets, 1)
	assert.Equal(t, 9, profile.Tickets[0].Quantity)
	assert.Equal(t, 50, profile.Tickets[0].Price)
	require.Len(t, profile.Purchases, 1)
	assert.Equal(t, "141.75", profile.Purchases[0].Cost)
	assert.Equal(t, int64(142), profile.Purchases[0].Charged)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Errors["/tickets/buy|POST|INSUFFICIENT_INVENTORY"])
	assert.Equal(t, int64(1), snap.TicketsSold)
	assert.Equal(t, int64(1), snap.Events["ticket_purchased"])
}

func TestLogoutRevokesToken(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "a@b.com", "Alice")

	status, _ := do(t, app, http.MethodGet, "/tickets", token, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/auth/logout", token, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env := do(t, app, http.MethodGet, "/tickets", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token revoked", env.Error.Message)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/health/live", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ready struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.Equal(t, "memory", ready.Dependencies["store"])

	status, env := do(t, app, http.MethodGet, "/nowhere", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
