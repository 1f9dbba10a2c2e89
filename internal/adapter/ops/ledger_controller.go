package ops

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/silverpine/guildbank/internal/commons"
	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
)

// LedgerService is the slice of the ledger the ops surface reads from.
type LedgerService interface {
	Balance(ctx context.Context, accountID int64) (domain.Amounts, error)
	Pending(ctx context.Context) ([]domain.Transaction, error)
}

// LedgerController serves read-only operational views of the ledger.
type LedgerController struct {
	service LedgerService
}

func NewLedgerController(service LedgerService) *LedgerController {
	return &LedgerController{service: service}
}

func (c *LedgerController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.Handler) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("GET /healthz", http.HandlerFunc(c.healthz))
	mux.Handle("GET /v1/ledger/pending", wrap(http.HandlerFunc(c.pending)))
	mux.Handle("GET /v1/ledger/accounts/{account}/balance", wrap(http.HandlerFunc(c.balance)))
}

type healthPayload struct {
	Status string `json:"status"`
}

type transactionPayload struct {
	ID              int64     `json:"id"`
	BookedAt        time.Time `json:"bookedAt"`
	ActorID         int64     `json:"actorId"`
	SenderAccount   int64     `json:"senderAccount"`
	ReceiverAccount int64     `json:"receiverAccount"`
	Amounts         string    `json:"amounts"`
	Description     string    `json:"description"`
	Confirmed       bool      `json:"confirmed"`
}

type pendingPayload struct {
	Count        int                  `json:"count"`
	Transactions []transactionPayload `json:"transactions"`
}

type balancePayload struct {
	AccountID int64            `json:"accountId"`
	Amounts   string           `json:"amounts"`
	Breakdown map[string]int64 `json:"breakdown"`
}

func (c *LedgerController) healthz(w http.ResponseWriter, _ *http.Request) {
	commons.WriteJSON(w, http.StatusOK, commons.SuccessResponse("service healthy", healthPayload{Status: "ok"}))
}

func (c *LedgerController) pending(w http.ResponseWriter, r *http.Request) {
	pending, err := c.service.Pending(r.Context())
	if err != nil {
		logger.Error("ops pending request failed", err, nil)
		commons.WriteJSON(w, http.StatusInternalServerError, commons.ErrorResponse[pendingPayload]("failed to load pending transactions", err.Error()))
		return
	}

	payload := pendingPayload{
		Count:        len(pending),
		Transactions: make([]transactionPayload, 0, len(pending)),
	}
	for _, tx := range pending {
		payload.Transactions = append(payload.Transactions, toPayload(tx))
	}
	commons.WriteJSON(w, http.StatusOK, commons.SuccessResponse("pending transactions", payload))
}

func (c *LedgerController) balance(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.PathValue("account"), 10, 64)
	if err != nil {
		commons.WriteJSON(w, http.StatusBadRequest, commons.ErrorResponse[balancePayload]("invalid account id", err.Error()))
		return
	}

	balance, err := c.service.Balance(r.Context(), accountID)
	if err != nil {
		logger.Error("ops balance request failed", err, logger.Fields{"accountId": accountID})
		commons.WriteJSON(w, http.StatusInternalServerError, commons.ErrorResponse[balancePayload]("failed to compute balance", err.Error()))
		return
	}

	payload := balancePayload{
		AccountID: accountID,
		Amounts:   balance.String(),
		Breakdown: make(map[string]int64, domain.NumDenominations),
	}
	for _, denom := range domain.Denominations() {
		payload.Breakdown[denom.String()] = balance[denom]
	}
	commons.WriteJSON(w, http.StatusOK, commons.SuccessResponse("account balance", payload))
}

func toPayload(tx domain.Transaction) transactionPayload {
	return transactionPayload{
		ID:              tx.ID,
		BookedAt:        tx.Timestamp,
		ActorID:         tx.ActorID,
		SenderAccount:   tx.SenderAccount,
		ReceiverAccount: tx.ReceiverAccount,
		Amounts:         tx.Amounts.String(),
		Description:     tx.Description,
		Confirmed:       tx.Confirmed,
	}
}
