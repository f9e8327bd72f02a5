package rates

import (
	"net/http"

	"github.com/meridian-labs/storegate/internal/api"
)

// Handler serves GET /api/exchange-rates.
type Handler struct {
	service *Service
}

// NewHandler wires the rates handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns the current rate table. Provider failures degrade to
// fallback rates with a 200 so clients can keep converting.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap, cached, err := h.service.Current(r.Context())

	body := map[string]interface{}{
		"rates":     snap.Rates,
		"cached":    cached,
		"timestamp": snap.FetchedAt.UnixMilli(),
	}

	if err != nil {
		body["error"] = "Failed to fetch live rates, using fallback values"
		body["source"] = "fallback"
		w.Header().Set("Cache-Control", "public, s-maxage=3600, stale-while-revalidate=1800")
		api.RespondJSON(w, http.StatusOK, body)
		return
	}

	body["nextUpdate"] = snap.FetchedAt.Add(h.service.TTL()).UnixMilli()
	w.Header().Set("Cache-Control", "public, s-maxage=86400, stale-while-revalidate=43200")
	api.RespondJSON(w, http.StatusOK, body)
}
