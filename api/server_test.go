package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server      *Server
	profiles    *mockProfileHandler
	wagers      *mockWagerHandler
	tasks       *mockTaskHandler
	purchases   *mockPurchaseHandler
	referrals   *mockReferralHandler
	leaderboard *mockLeaderboardHandler
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.NewTestConfig()
	if mutate != nil {
		mutate(cfg)
	}

	ts := &testServer{
		profiles:    &mockProfileHandler{},
		wagers:      &mockWagerHandler{},
		tasks:       &mockTaskHandler{},
		purchases:   &mockPurchaseHandler{},
		referrals:   &mockReferralHandler{},
		leaderboard: &mockLeaderboardHandler{},
	}
	ts.server = NewServer(cfg, Handlers{
		Profiles:    ts.profiles,
		Wagers:      ts.wagers,
		Tasks:       ts.tasks,
		Purchases:   ts.purchases,
		Referrals:   ts.referrals,
		Leaderboard: ts.leaderboard,
	}, nil, nil)

	t.Cleanup(func() {
		ts.profiles.AssertExpectations(t)
		ts.wagers.AssertExpectations(t)
		ts.tasks.AssertExpectations(t)
		ts.purchases.AssertExpectations(t)
		ts.referrals.AssertExpectations(t)
		ts.leaderboard.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", authHeader("launch_code"))

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func testProfile() *entities.Profile {
	return &entities.Profile{
		ID:                   "42",
		Username:             "flipper",
		FirstName:            "Flip",
		Points:               200,
		ClaimableCentipoints: 50025,
		ReferralCode:         "AB12CD",
		CreatedAt:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestServer_RequiresLaunchData(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestServer_Session(t *testing.T) {
	t.Run("first launch uses start param", func(t *testing.T) {
		ts := newTestServer(t, nil)
		isCaller := mock.MatchedBy(func(u entities.TelegramUser) bool {
			return u.ID == 42 && u.Username == "flipper"
		})
		ts.profiles.On("Bootstrap", mock.Anything, isCaller, "launch_code").Return(testProfile(), true, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/session", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var body sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Created)
		assert.Equal(t, "42", body.Profile.ID)
		assert.InDelta(t, 500.25, body.Profile.ClaimablePoints, 0.001)
	})

	t.Run("body referral code wins over start param", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.profiles.On("Bootstrap", mock.Anything, mock.Anything, "BODYCODE").Return(testProfile(), false, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/session", `{"referral_code":"BODYCODE"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/session", `{"referrer":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
	})
}

func TestServer_Flip(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.wagers.On("Flip", mock.Anything, "42", "heads", int64(100)).Return(&entities.BetResult{
			BetID:     7,
			Choice:    entities.CoinSideHeads,
			Result:    entities.CoinSideHeads,
			Won:       true,
			Amount:    100,
			NewPoints: 300,
		}, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/flip", `{"choice":"heads","amount":100}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body flipResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(7), body.BetID)
		assert.Equal(t, "Heads", body.Result)
		assert.True(t, body.Won)
		assert.Equal(t, int64(300), body.NewPoints)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient points", fmt.Errorf("%w: have 50", entities.ErrInsufficientPoints), http.StatusConflict, "insufficient_points"},
		{"invalid wager", entities.ErrInvalidWager, http.StatusBadRequest, "invalid_wager"},
		{"invalid choice", entities.ErrInvalidChoice, http.StatusBadRequest, "invalid_choice"},
		{"unmapped", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.wagers.On("Flip", mock.Anything, "42", "tails", int64(100)).Return(nil, tc.err)

			rec := ts.do(t, http.MethodPost, "/api/v1/flip", `{"choice":"tails","amount":100}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}

	t.Run("internal errors hide details", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.wagers.On("Flip", mock.Anything, "42", "tails", int64(100)).Return(nil, errors.New("pq: secret detail"))

		rec := ts.do(t, http.MethodPost, "/api/v1/flip", `{"choice":"tails","amount":100}`)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})
}

func TestServer_Purchases(t *testing.T) {
	purchaseID := uuid.MustParse("5b0f2f8e-3a0c-4d61-9b0a-2c7c1f9f4a11")

	t.Run("initiate returns a TON Connect payload", func(t *testing.T) {
		ts := newTestServer(t, nil)
		validUntil := time.Unix(1_800_000_000, 0)
		ts.purchases.On("InitiatePurchase", mock.Anything, "42").Return(&entities.PurchaseIntent{
			PurchaseID:       purchaseID,
			RecipientAddress: "UQB1tZNtifeLxqQmWUfI9AHVtjvrt3x85Jv6XmkvMiDIt0mS",
			AmountNano:       150000000,
			ValidUntil:       validUntil,
			VerifiableAt:     validUntil.Add(-19 * time.Minute),
		}, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/purchases", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var body purchaseIntentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, purchaseID.String(), body.PurchaseID)
		assert.Equal(t, int64(1_800_000_000), body.ValidUntil)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "150000000", body.Messages[0].Amount)
	})

	t.Run("verify cooldown is retryable", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.purchases.On("VerifyPurchase", mock.Anything, "42", purchaseID).
			Return(nil, fmt.Errorf("%w: retry in 9s", entities.ErrVerifyCooldown))

		rec := ts.do(t, http.MethodPost, "/api/v1/purchases/"+purchaseID.String()+"/verify", "")
		assert.Equal(t, http.StatusTooEarly, rec.Code)

		body := decodeError(t, rec)
		assert.Equal(t, "verify_cooldown", body.Code)
		assert.True(t, body.Retryable)
	})

	t.Run("missing transfer is retryable", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.purchases.On("VerifyPurchase", mock.Anything, "42", purchaseID).Return(nil, entities.ErrPurchaseNotFound)

		rec := ts.do(t, http.MethodPost, "/api/v1/purchases/"+purchaseID.String()+"/verify", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeError(t, rec)
		assert.Equal(t, "transaction_not_found", body.Code)
		assert.True(t, body.Retryable)
	})

	t.Run("malformed purchase id", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/purchases/not-a-uuid/verify", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Tasks(t *testing.T) {
	ts := newTestServer(t, nil)
	claimedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.tasks.On("ClaimTask", mock.Anything, "42", "daily_bet").Return(&entities.TaskClaimResult{
		TaskID:    "daily_bet",
		Reward:    50,
		NewPoints: 250,
		ClaimedAt: claimedAt,
	}, nil)
	ts.tasks.On("ClaimTask", mock.Anything, "42", "join_channel").Return(nil, entities.ErrTaskOnCooldown)

	rec := ts.do(t, http.MethodPost, "/api/v1/tasks/daily_bet/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body taskClaimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(250), body.NewPoints)
	assert.True(t, claimedAt.Equal(body.ClaimedAt))

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/join_channel/claim", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "task_on_cooldown", decodeError(t, rec).Code)
}

func TestServer_Referrals(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.referrals.On("ClaimEarnings", mock.Anything, "42").Return(&entities.ReferralClaimResult{
		Claimed:               275,
		NewPoints:             475,
		RemainingCentipoints:  50,
		TotalReferralEarnings: 275,
	}, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/profile/referrals/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body referralClaimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(275), body.Claimed)
	assert.InDelta(t, 0.5, body.RemainingClaimable, 0.001)
}

func TestServer_Leaderboard(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.leaderboard.On("GetLeaderboard", mock.Anything, "bogus").Return(nil, entities.ErrInvalidLeaderboardSort)
	ts.leaderboard.On("GetRecentPlays", mock.Anything, "42").Return([]*entities.Bet{{
		ID:        3,
		ProfileID: "42",
		Amount:    100,
		Choice:    entities.CoinSideTails,
		Result:    entities.CoinSideHeads,
		Outcome:   entities.BetOutcomeRugged,
	}}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/leaderboard?sort=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_sort", decodeError(t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/plays?user=42", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var bets []betResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bets))
	require.Len(t, bets, 1)
	assert.Equal(t, "rugged", bets[0].Outcome)
}

func TestServer_RateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRPS = 1
		cfg.RateLimitBurst = 1
	})
	ts.profiles.On("GetProfile", mock.Anything, "42").Return(testProfile(), nil).Once()

	rec := ts.do(t, http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)
}

func TestServer_Health(t *testing.T) {
	cfg := config.NewTestConfig()

	healthy := NewServer(cfg, Handlers{}, nil, func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewServer(cfg, Handlers{}, nil, func(context.Context) error { return errors.New("database unreachable") })
	rec = httptest.NewRecorder()
	down.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
