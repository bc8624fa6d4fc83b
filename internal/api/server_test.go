package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/engine"
	"t2e-leaderboard/internal/observability"
	"t2e-leaderboard/internal/payout"
	"t2e-leaderboard/internal/ranking"
	"t2e-leaderboard/internal/storage/memory"
	"t2e-leaderboard/internal/vault"
)

const (
	admin   domain.Pubkey = "So11111111111111111111111111111111111111112"
	traderA domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	traderB domain.Pubkey = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	tokens *authz.TokenIssuer
	ledger *vault.Ledger
	now    *atomic.Int64
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	ts := &testServer{
		tokens: authz.NewTokenIssuer("test-secret", "t2e-test", time.Hour),
		ledger: vault.NewLedger(),
		now:    &atomic.Int64{},
	}
	ts.now.Store(1_000_000)

	reg := prometheus.NewRegistry()
	e, err := engine.New(engine.Options{
		TraderStats: memory.NewTraderStatsStore(),
		Leaderboard: memory.NewLeaderboardStore(),
		History:     memory.NewHistoryStore(),
		Payouts:     memory.NewPayoutStore(),
		Authorizer:  authz.NewStatic(admin),
		Resolver: payout.NewStaticResolver(map[domain.Pubkey]string{
			traderA: "dest-a",
			traderB: "dest-b",
		}),
		Transferrer: ts.ledger,
		RewardVault: "reward-vault",
		StakeVault:  "stake-vault",
		Clock:       engine.ClockFunc(ts.now.Load),
		Metrics:     observability.NewMetrics("t2e", reg),
		NewRunID:    func() string { return "run-1" },
	})
	require.NoError(t, err)

	ts.router = NewRouter(Options{
		Backend: e,
		Tokens:  ts.tokens,
		Metrics: reg,
		Checks:  checks,
	})
	return ts
}

func (ts *testServer) token(t *testing.T, subject domain.Pubkey) string {
	t.Helper()
	tok, err := ts.tokens.Issue(subject)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// rankedBoard initializes the leaderboard and ranks A=300, B=100.
func (ts *testServer) rankedBoard(t *testing.T) {
	t.Helper()
	adminTok := ts.token(t, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/leaderboard/initialize", adminTok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ts.now.Add(ranking.MinUpdateInterval)
	w = ts.do(t, http.MethodPost, "/api/v1/leaderboard/update", "", updateRequest{Batch: []domain.StatsInput{
		{Trader: traderA, TotalVolume: 300},
		{Trader: traderB, TotalVolume: 100},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	ts = newTestServer(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/v1/admin/leaderboard/initialize", ts.token(t, admin), nil)

	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "t2e_engine_operations_total")
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t, nil)
	path := "/api/v1/admin/leaderboard/initialize"

	w := ts.do(t, http.MethodPost, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, path, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := authz.NewTokenIssuer("other-secret", "t2e-test", time.Hour)
	forged, err := other.Issue(admin)
	require.NoError(t, err)
	w = ts.do(t, http.MethodPost, path, forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, path, ts.token(t, traderA), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, path, ts.token(t, admin), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, path, ts.token(t, admin), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTraderLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	tokA := ts.token(t, traderA)
	base := "/api/v1/traders/" + string(traderA)

	w := ts.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/traders/not-a-key/register", tokA, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/register", ts.token(t, traderB), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, base+"/register", tokA, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, base+"/register", tokA, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, base+"/trades", tokA, tradeRequest{Volume: 500, ExecutionTime: 4, PnL: 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decode[traderStatsResponse](t, w)
	assert.Equal(t, uint64(500), st.TotalVolume)
	assert.Equal(t, uint64(1), st.TradeCount)

	w = ts.do(t, http.MethodPost, base+"/trades", tokA, tradeRequest{Volume: 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	require.NoError(t, ts.ledger.Mint(string(traderA), 20_000))
	w = ts.do(t, http.MethodPost, base+"/stake", tokA, stakeRequest{Amount: 30_000})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodPost, base+"/stake", tokA, stakeRequest{Amount: 2_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(2_000), decode[traderStatsResponse](t, w).StakedAmount)

	w = ts.do(t, http.MethodPost, base+"/fee-discount", tokA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trader":"`+string(traderA)+`","fee_discount":10}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/traders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]traderStatsResponse](t, w), 1)
}

func TestLeaderboardUpdate(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/leaderboard", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts.rankedBoard(t)

	w = ts.do(t, http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lb := decode[leaderboardResponse](t, w)
	assert.Equal(t, []rankedEntry{
		{Rank: 1, Trader: traderA, Score: 300},
		{Rank: 2, Trader: traderB, Score: 100},
	}, lb.Entries)

	w = ts.do(t, http.MethodPost, "/api/v1/leaderboard/refresh", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/leaderboard/update", "", updateRequest{Batch: []domain.StatsInput{{Trader: "bad"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/leaderboard/update", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryAndMovements(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/leaderboard/snapshot", ts.token(t, admin), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/history?from=0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snaps := decode[[]snapshotResponse](t, w)
	require.Len(t, snaps, 1)
	assert.Equal(t, []domain.Pubkey{traderA, traderB}, snaps[0].Traders)

	w = ts.do(t, http.MethodGet, "/api/v1/history?from=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/leaderboard/movements", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	moves := decode[[]movementResponse](t, w)
	require.Len(t, moves, 2)
	assert.Equal(t, 0, moves[0].Delta)
}

func TestDistribute(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)
	require.NoError(t, ts.ledger.Mint("reward-vault", 5000))
	adminTok := ts.token(t, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/pause", adminTok, map[string]bool{"paused": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[leaderboardResponse](t, w).EmergencyPause)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/distribute", adminTok, distributeRequest{TopN: 2, Pool: 1000})
	assert.Equal(t, http.StatusLocked, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/pause", adminTok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/pause", adminTok, map[string]bool{"paused": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/distribute", adminTok, distributeRequest{TopN: -1, Pool: 1000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/admin/distribute", adminTok, distributeRequest{TopN: 2, Pool: 1000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dist := decode[DistributionResponse](t, w)
	assert.Equal(t, "run-1", dist.RunID)
	assert.Equal(t, uint64(400), dist.TotalScore)
	require.Len(t, dist.Payouts, 2)
	assert.Equal(t, uint64(750), dist.Payouts[0].Amount)
	assert.Equal(t, uint64(250), dist.Payouts[1].Amount)

	w = ts.do(t, http.MethodGet, "/api/v1/runs/run-1/payouts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]PayoutResponse](t, w), 2)

	w = ts.do(t, http.MethodGet, "/api/v1/traders/"+string(traderB)+"/payouts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dest-b", decode[[]PayoutResponse](t, w)[0].Destination)
}

func TestDistribute_PartialFailureReportsPayouts(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)
	require.NoError(t, ts.ledger.Mint("reward-vault", 800))

	w := ts.do(t, http.MethodPost, "/api/v1/admin/distribute", ts.token(t, admin), distributeRequest{TopN: 2, Pool: 1000})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	dist := decode[DistributionResponse](t, w)
	assert.Equal(t, 2, dist.Planned)
	require.Len(t, dist.Payouts, 1)
	assert.True(t, strings.Contains(dist.Error, "insufficient"), dist.Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrOverflow))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrNoValidScores))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(domain.ErrUpdateTooSoon))
}
