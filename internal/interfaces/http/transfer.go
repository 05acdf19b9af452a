package http

import (
	"context"
	"net/http"

	"horizon/internal/domain/transfer"
)

type TransferService interface {
	Create(ctx context.Context, userID string, params transfer.CreateTransferParams) (*transfer.Transfer, error)
}

type TransferHandler struct {
	transfers TransferService
}

func NewTransferHandler(transfers TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type TransferResponse struct {
	Transfer *transfer.Transfer `json:"transfer"`
}

// HandleCreate handles POST /api/transfers. A client-supplied
// Idempotency-Key header is forwarded to the payments provider.
func (h *TransferHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var params transfer.CreateTransferParams
	if !decodeJSON(w, r, &params) {
		return
	}
	params.IdempotencyKey = r.Header.Get("Idempotency-Key")

	t, err := h.transfers.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, err, "Transfer failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, TransferResponse{Transfer: t})
}
