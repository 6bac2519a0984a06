package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tonflip/domain/entities"

	log "github.com/sirupsen/logrus"
)

// errorResponse is the body of every failed request. Code is stable and
// drives the client's toasts.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

type errorMapping struct {
	err       error
	status    int
	code      string
	retryable bool
}

// Checked in order, the first errors.Is match wins
var errorMappings = []errorMapping{
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized", false},

	{entities.ErrInvalidWager, http.StatusBadRequest, "invalid_wager", false},
	{entities.ErrInvalidChoice, http.StatusBadRequest, "invalid_choice", false},
	{entities.ErrInvalidLeaderboardSort, http.StatusBadRequest, "invalid_sort", false},
	{entities.ErrInvalidWalletAddress, http.StatusBadRequest, "invalid_wallet_address", false},

	{entities.ErrProfileNotFound, http.StatusNotFound, "profile_not_found", false},
	{entities.ErrUnknownTask, http.StatusNotFound, "unknown_task", false},
	{entities.ErrUnknownPurchase, http.StatusNotFound, "unknown_purchase", false},
	{entities.ErrPurchaseNotFound, http.StatusNotFound, "transaction_not_found", true},

	{entities.ErrInsufficientPoints, http.StatusConflict, "insufficient_points", false},
	{entities.ErrWalletNotConnected, http.StatusConflict, "wallet_not_connected", false},
	{entities.ErrTaskOnCooldown, http.StatusConflict, "task_on_cooldown", false},
	{entities.ErrTaskRequirementNotMet, http.StatusConflict, "task_requirement_not_met", false},
	{entities.ErrTaskNotClaimable, http.StatusConflict, "task_not_claimable", false},
	{entities.ErrPurchaseLimitReached, http.StatusConflict, "purchase_limit_reached", false},
	{entities.ErrPurchaseExpired, http.StatusConflict, "purchase_expired", false},
	{entities.ErrPurchaseAlreadyVerified, http.StatusConflict, "purchase_already_verified", false},
	{entities.ErrTransactionAlreadyUsed, http.StatusConflict, "transaction_already_used", false},
	{entities.ErrNothingToClaim, http.StatusConflict, "nothing_to_claim", false},

	{entities.ErrVerifyCooldown, http.StatusTooEarly, "verify_cooldown", true},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// writeError maps err onto a status and code. Unmapped errors are logged and
// reported as internal errors without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, errorResponse{Error: err.Error(), Code: m.code, Retryable: m.retryable})
			return
		}
	}

	log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err,
	}).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal_error"})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Code: "invalid_request"})
}
