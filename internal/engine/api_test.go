package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"updown-trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFeed is a mock implementation of pricefeed.ClientInterface.
type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) GetServerTime() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeed) GetQuote(symbol string) (float64, error) {
	args := m.Called(symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockFeed) GetAllQuotes() (map[string]float64, error) {
	args := m.Called()
	return args.Get(0).(map[string]float64), args.Error(1)
}

func setupAPITest(src NoiseSource, feed *MockFeed) (*APIServer, *Engine) {
	e := newTestEngine(src)
	var s *APIServer
	if feed != nil {
		s = NewAPIServer(e, feed, 0, zap.NewNop())
	} else {
		s = NewAPIServer(e, nil, 0, zap.NewNop())
	}
	return s, e
}

func TestAPI_OpenTradeWithExplicitPrice(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 0}, nil)
	defer e.Close()

	body := `{"asset": "BTCUSDT", "direction": "UP", "amount": 100, "start_price": 50, "duration_seconds": 5}`
	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var trade models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, models.StatusActive, trade.Status)
	assert.Equal(t, 50.0, trade.StartPrice)
	assert.Len(t, e.Active(), 1)
}

func TestAPI_OpenTradeSeedsPriceFromFeed(t *testing.T) {
	feed := new(MockFeed)
	feed.On("GetQuote", "ETHUSDT").Return(3900.0, nil)
	s, e := setupAPITest(fixedSource{u: 0}, feed)
	defer e.Close()

	body := `{"asset": "ETHUSDT", "direction": "DOWN", "amount": 25, "duration_seconds": 30}`
	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var trade models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, 3900.0, trade.StartPrice)
	feed.AssertExpectations(t)
}

func TestAPI_OpenTradeFeedUnavailable(t *testing.T) {
	feed := new(MockFeed)
	feed.On("GetQuote", "ETHUSDT").Return(0.0, assert.AnError)
	s, e := setupAPITest(fixedSource{u: 0}, feed)
	defer e.Close()

	body := `{"asset": "ETHUSDT", "direction": "DOWN", "amount": 25, "duration_seconds": 30}`
	req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, e.Active())
}

func TestAPI_OpenTradeValidationErrors(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 0}, nil)
	defer e.Close()

	cases := []struct {
		name string
		body string
	}{
		{"BadJSON", `{`},
		{"MissingStartPrice", `{"asset": "X", "direction": "UP", "amount": 100, "duration_seconds": 5}`},
		{"BadDirection", `{"asset": "X", "direction": "FLAT", "amount": 100, "start_price": 50, "duration_seconds": 5}`},
		{"ZeroAmount", `{"asset": "X", "direction": "UP", "amount": 0, "start_price": 50, "duration_seconds": 5}`},
		{"ZeroDuration", `{"asset": "X", "direction": "UP", "amount": 100, "start_price": 50, "duration_seconds": 0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/trades", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			s.server.Handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, e.Active())
}

func TestAPI_ActiveView(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 0}, nil)
	defer e.Close()

	start := time.Now()
	e.now = func() time.Time { return start }
	_, err := e.OpenTrade("X", models.DirectionUp, 100, 50, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/trades", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var views []activeTradeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusActive, views[0].Status)
	assert.GreaterOrEqual(t, views[0].Progress, 0.0)
	assert.LessOrEqual(t, views[0].Progress, 1.0)
	assert.Greater(t, views[0].RemainingSeconds, 0.0)
}

func TestAPI_HistoryAndStats(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 1}, nil)
	defer e.Close()

	start := time.Now()
	e.now = func() time.Time { return start }
	_, err := e.OpenTrade("X", models.DirectionUp, 100, 50, 5*time.Second)
	require.NoError(t, err)
	_, err = e.OpenTrade("X", models.DirectionDown, 50, 50, 5*time.Second)
	require.NoError(t, err)
	e.tick(start.Add(10 * time.Second))

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var history []models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 2)

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.InDelta(t, 35.0, stats.NetPnL, 1e-9)
}

func TestAPI_Health(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 0}, nil)
	defer e.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	s, e := setupAPITest(fixedSource{u: 0}, nil)
	defer e.Close()

	req := httptest.NewRequest(http.MethodDelete, "/trades", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
