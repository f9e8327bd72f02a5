package preview

import (
	"net/http"

	"github.com/meridian-labs/storegate/internal/api"
)

// healthQuery is the cheapest query the CMS will answer.
const healthQuery = "{ __typename }"

// Health handles GET /api/preview-proxy/health: a connectivity probe for
// the upstream CMS using the same TLS settings as the proxy itself.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.endpoint == "" {
		api.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ok":    false,
			"error": "upstream endpoint not configured",
		})
		return
	}

	res, err := h.upstream.Forward(r.Context(), healthQuery, nil)
	if err != nil {
		h.logger.Error("preview health probe failed", "error", err)
		msg := "Upstream fetch failed"
		if isTLSVerificationError(err) {
			msg = "Upstream TLS verification failed. Consider setting PREVIEW_CA_PATH, or PREVIEW_ALLOW_INSECURE for local development."
		}
		api.RespondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ok":    false,
			"error": msg,
		})
		return
	}

	if res.Status >= 200 && res.Status <= 299 {
		api.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"upstream": h.endpoint,
		})
		return
	}

	h.logger.Error("preview health probe got error status", "status", res.Status)
	api.RespondJSON(w, http.StatusBadGateway, map[string]interface{}{
		"ok":       false,
		"upstream": h.endpoint,
		"status":   res.Status,
	})
}
