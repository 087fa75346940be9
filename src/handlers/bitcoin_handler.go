// backend/src/handlers/bitcoin_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/hodlfolio/backend/src/logger"
	"github.com/username/hodlfolio/backend/src/security/validation"
	"github.com/username/hodlfolio/backend/src/services"
	"github.com/username/hodlfolio/backend/src/utils"
)

type BitcoinHandler struct {
	priceService services.PriceService
}

func NewBitcoinHandler(priceService services.PriceService) *BitcoinHandler {
	return &BitcoinHandler{
		priceService: priceService,
	}
}

// HandleGetPrice proxies the current Bitcoin spot price in the requested
// fiat currency, defaulting to USD.
func (h *BitcoinHandler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency != "" {
		if err := validation.ValidateCurrencyCode(currency); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	price, err := h.priceService.GetBitcoinPrice(r.Context(), currency)
	if err != nil {
		if errors.Is(err, services.ErrPriceProvider) {
			logger.FromContext(r.Context()).Warn("Price provider unavailable", "currency", currency, "error", err)
			utils.SendJSONError(w, "Price provider unavailable", http.StatusBadGateway)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to fetch Bitcoin price", "currency", currency, "error", err)
		utils.SendJSONError(w, "Failed to fetch Bitcoin price", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(price); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding price response", "error", err)
	}
}
