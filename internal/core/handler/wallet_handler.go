package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Pudd11ng/wallet/internal/core/idempotency"
	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/usecase"
	"github.com/gorilla/mux"
)

const (
	headerRequestID = "X-Request-ID"
	headerClientID  = "X-Client-Id"
)

// Admitter is the idempotency gate in front of every mutating route.
type Admitter interface {
	Admit(ctx context.Context, requestID string) error
}

type WalletHandler struct {
	transfers usecase.TransferUsecase
	wallets   usecase.WalletUsecase
	guard     Admitter
	log       logger.Logger
}

func NewWalletHandler(transfers usecase.TransferUsecase, wallets usecase.WalletUsecase, guard Admitter, log logger.Logger) *WalletHandler {
	return &WalletHandler{
		transfers: transfers,
		wallets:   wallets,
		guard:     guard,
		log:       log,
	}
}

func (h *WalletHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/wallets/initialize", h.InitializeWallet).Methods("POST")
	router.HandleFunc("/api/v1/wallets/transfer", h.TransferFunds).Methods("POST")
	router.HandleFunc("/api/v1/wallets/topup", h.TopUpWallet).Methods("POST")
	router.HandleFunc("/api/v1/wallets/{wallet_id}/history", h.GetWalletHistory).Methods("GET")
}

func (h *WalletHandler) InitializeWallet(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)

	var req models.InitializeWalletRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if req.UserID == "" || req.Currency == "" {
		h.respondError(w, http.StatusBadRequest, "userId and currency are required", requestID)
		return
	}

	if !h.admit(r.Context(), w, requestID) {
		return
	}

	resp, err := h.wallets.InitializeWallet(r.Context(), req)
	if err != nil {
		h.handleOperationError(w, requestID, err)
		return
	}

	h.log.Info("Wallet initialized",
		logger.StringField("wallet_id", resp.WalletID),
		logger.StringField("request_id", requestID))
	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *WalletHandler) TransferFunds(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	clientID := r.Header.Get(headerClientID)

	var req models.TransferRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if clientID == "" {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", headerClientID), requestID)
		return
	}
	if req.FromWalletID == "" || req.ToWalletID == "" {
		h.respondError(w, http.StatusBadRequest, "fromWalletId and toWalletId are required", requestID)
		return
	}

	if !h.admit(r.Context(), w, requestID) {
		return
	}

	resp, err := h.transfers.ExecuteTransfer(r.Context(), requestID, clientID, req)
	if err != nil {
		h.handleOperationError(w, requestID, err)
		return
	}

	h.log.Info("Transfer processed",
		logger.StringField("wallet_id", resp.WalletID),
		logger.StringField("request_id", requestID),
		logger.StringField("new_balance", resp.Balance.StringFixedBank(4)))
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *WalletHandler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)

	var req models.TopUpRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if req.WalletID == "" || req.Source == "" || req.ReferenceID == "" {
		h.respondError(w, http.StatusBadRequest, "walletId, source and referenceId are required", requestID)
		return
	}

	if !h.admit(r.Context(), w, requestID) {
		return
	}

	resp, err := h.wallets.TopUp(r.Context(), requestID, req)
	if err != nil {
		h.handleOperationError(w, requestID, err)
		return
	}

	h.log.Info("Top-up processed",
		logger.StringField("wallet_id", req.WalletID),
		logger.StringField("request_id", requestID))
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *WalletHandler) GetWalletHistory(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	walletID := mux.Vars(r)["wallet_id"]

	resp, err := h.wallets.GetHistory(r.Context(), walletID)
	if err != nil {
		h.handleOperationError(w, requestID, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// admit runs the idempotency guard; a duplicate or missing request id fails
// fast before any business work starts.
func (h *WalletHandler) admit(ctx context.Context, w http.ResponseWriter, requestID string) bool {
	if err := h.guard.Admit(ctx, requestID); err != nil {
		switch {
		case errors.Is(err, idempotency.ErrMissingRequestID):
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", headerRequestID), requestID)
		case errors.Is(err, idempotency.ErrAlreadyProcessed):
			h.respondError(w, http.StatusConflict, fmt.Sprintf("transaction already processed with request id %s", requestID), requestID)
		default:
			h.log.Error("Idempotency guard failed",
				logger.StringField("request_id", requestID),
				logger.ErrorField("error", err))
			h.respondError(w, http.StatusInternalServerError, "failed to process request", requestID)
		}
		return false
	}
	return true
}

func (h *WalletHandler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Warn("Failed to decode request body", logger.ErrorField("error", err))
		return fmt.Errorf("invalid request payload")
	}
	return nil
}

func (h *WalletHandler) handleOperationError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidAmount), errors.Is(err, usecase.ErrSelfTransfer):
		h.respondError(w, http.StatusBadRequest, err.Error(), requestID)
	case errors.Is(err, usecase.ErrUnauthorized):
		h.respondError(w, http.StatusForbidden, "you cannot transfer funds from a wallet you do not own", requestID)
	case errors.Is(err, usecase.ErrWalletNotFound):
		h.respondError(w, http.StatusNotFound, "wallet not found", requestID)
	case errors.Is(err, usecase.ErrWalletExists):
		h.respondError(w, http.StatusConflict, err.Error(), requestID)
	case errors.Is(err, usecase.ErrWalletInactive):
		h.respondError(w, http.StatusConflict, "wallet is not active", requestID)
	case errors.Is(err, usecase.ErrInsufficientFunds):
		h.respondError(w, http.StatusBadRequest, "insufficient funds", requestID)
	case errors.Is(err, usecase.ErrLimitExceeded):
		h.respondError(w, http.StatusBadRequest, "transfer amount exceeds the maximum allowed limit", requestID)
	case errors.Is(err, usecase.ErrConcurrencyConflict):
		h.respondError(w, http.StatusConflict, "wallet state changed concurrently, please retry", requestID)
	case errors.Is(err, usecase.ErrDuplicateRequest):
		h.respondError(w, http.StatusConflict, fmt.Sprintf("transaction already processed with request id %s", requestID), requestID)
	case errors.Is(err, usecase.ErrIdentityUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "could not verify caller identity", requestID)
	default:
		h.log.Error("Failed to process operation",
			logger.StringField("request_id", requestID),
			logger.ErrorField("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to process operation", requestID)
	}
}

func (h *WalletHandler) respondError(w http.ResponseWriter, code int, message, requestID string) {
	respondWithJSON(w, code, models.ErrorResponse{Error: message, RequestID: requestID})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`)) // Fallback response
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
