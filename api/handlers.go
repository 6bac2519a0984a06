package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"tonflip/domain/entities"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 16

// decodeBody decodes an optional JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func mustIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, ErrUnauthorized)
	}
	return identity, ok
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid session request: "+err.Error())
		return
	}

	referralCode := strings.TrimSpace(req.ReferralCode)
	if referralCode == "" {
		referralCode = identity.StartParam
	}

	profile, created, err := s.handlers.Profiles.Bootstrap(r.Context(), identity.User, referralCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, sessionResponse{Profile: newProfileResponse(profile), Created: created})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	profile, err := s.handlers.Profiles.GetProfile(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	var req walletRequest
	if err := decodeBody(r, &req); err != nil || req.Address == "" {
		writeBadRequest(w, "address is required")
		return
	}

	profile, err := s.handlers.Profiles.ConnectWallet(r.Context(), identity.ProfileID(), req.Address)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (s *Server) handleDisconnectWallet(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	profile, err := s.handlers.Profiles.DisconnectWallet(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	var req flipRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid flip request: "+err.Error())
		return
	}

	result, err := s.handlers.Wagers.Flip(r.Context(), identity.ProfileID(), req.Choice, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, flipResponse{
		BetID:     result.BetID,
		Choice:    string(result.Choice),
		Result:    string(result.Result),
		Won:       result.Won,
		Amount:    result.Amount,
		NewPoints: result.NewPoints,
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	tasks, err := s.handlers.Tasks.ListTasks(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponses(tasks))
}

func (s *Server) handleClaimTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	result, err := s.handlers.Tasks.ClaimTask(r.Context(), identity.ProfileID(), mux.Vars(r)["taskID"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, taskClaimResponse{
		TaskID:    string(result.TaskID),
		Reward:    result.Reward,
		NewPoints: result.NewPoints,
		ClaimedAt: result.ClaimedAt,
	})
}

func (s *Server) handleInitiatePurchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	intent, err := s.handlers.Purchases.InitiatePurchase(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPurchaseIntentResponse(intent))
}

func (s *Server) handleVerifyPurchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	purchaseID, err := uuid.Parse(mux.Vars(r)["purchaseID"])
	if err != nil {
		writeBadRequest(w, "invalid purchase id")
		return
	}

	result, err := s.handlers.Purchases.VerifyPurchase(r.Context(), identity.ProfileID(), purchaseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResultResponse{
		PurchaseID:     result.PurchaseID.String(),
		TxHash:         result.TxHash,
		Reward:         result.Reward,
		NewPoints:      result.NewPoints,
		DailyPurchases: result.DailyPurchases,
	})
}

func (s *Server) handleClaimReferrals(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	result, err := s.handlers.Referrals.ClaimEarnings(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, referralClaimResponse{
		Claimed:               result.Claimed,
		NewPoints:             result.NewPoints,
		RemainingClaimable:    float64(result.RemainingCentipoints) / float64(entities.CentipointsPerPoint),
		TotalReferralEarnings: result.TotalReferralEarnings,
	})
}

func (s *Server) handleListReferrals(w http.ResponseWriter, r *http.Request) {
	identity, ok := mustIdentity(w, r)
	if !ok {
		return
	}

	users, err := s.handlers.Referrals.ListReferredUsers(r.Context(), identity.ProfileID())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]referredUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, referredUserResponse{
			ID:        u.ProfileID,
			Username:  u.Username,
			FirstName: u.FirstName,
			Points:    u.Points,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.handlers.Leaderboard.GetLeaderboard(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRecentPlays(w http.ResponseWriter, r *http.Request) {
	bets, err := s.handlers.Leaderboard.GetRecentPlays(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetResponses(bets))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
