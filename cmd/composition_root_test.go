package cmd

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		HTTPPort:          8080,
		StoreBackend:      BackendMemory,
		BotAPIURL:         "http://127.0.0.1:1",
		BotToken:          "123:abc",
		BotRateLimit:      25,
		BotRateLimitBurst: 5,
		OperatorChatID:    "-1001",
		NotifyTimeout:     time.Second,
		ShutdownTimeout:   time.Second,
	}
}

func TestOpenOrderStore(t *testing.T) {
	cfg := testConfig()

	repo, closeStore, err := OpenOrderStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, repo)
	require.NoError(t, closeStore())

	cfg.StoreBackend = BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "orders.db")
	repo, closeStore, err = OpenOrderStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.OrderRepository{}, repo)
	require.NoError(t, closeStore())

	cfg.StoreBackend = "redis"
	_, _, err = OpenOrderStore(cfg)
	require.Error(t, err)
}

func TestCompositionRoot_Router(t *testing.T) {
	cfg := testConfig()
	repo, closeStore, err := OpenOrderStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	root, err := NewCompositionRoot(cfg, repo, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	router := root.CreateRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/active?customer=chat-7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	root.Dispatcher().Wait()
}

func TestNewCompositionRoot_RejectsMissingToken(t *testing.T) {
	cfg := testConfig()
	cfg.BotToken = ""

	_, err := NewCompositionRoot(cfg, nil, slog.New(slog.DiscardHandler))

	require.Error(t, err)
}
