// Package search proxies storefront product search to the CMS GraphQL
// endpoint. Unlike the preview proxy the query text is fixed server-side;
// clients only supply the search term, and queries shorter than two
// characters are answered empty without touching the CMS.
package search

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/meridian-labs/storegate/internal/api"
)

// minQueryLength is the shortest term worth a CMS round trip.
const minQueryLength = 2

const searchQuery = `query SearchProducts($search: String!) {
  products(where: { search: $search, visibility: VISIBLE }, first: 8) {
    nodes {
      id
      databaseId
      name
      slug
      ... on SimpleProduct {
        price
        shortDescription
        image {
          sourceUrl
          altText
        }
        productCategories {
          nodes {
            name
            slug
          }
        }
      }
      ... on VariableProduct {
        price
        shortDescription
        image {
          sourceUrl
          altText
        }
        productCategories {
          nodes {
            name
            slug
          }
        }
      }
    }
  }
}`

// Handler serves POST /api/search.
type Handler struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHandler wires the search handler against the CMS GraphQL endpoint.
func NewHandler(endpoint string, logger *slog.Logger) *Handler {
	return &Handler{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchPayload struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// emptyResult mirrors the shape of a real result with no hits.
var emptyResult = []byte(`{"products":{"nodes":[]}}`)

// Search runs the product search. Upstream error statuses are passed
// through; GraphQL-level errors become a 502 like the other CMS proxies.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}
	if len(req.Query) < minQueryLength {
		api.RespondRaw(w, http.StatusOK, emptyResult)
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":     searchQuery,
		"variables": map[string]string{"search": req.Query},
	})
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	upReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(upReq)
	if err != nil {
		h.logger.Error("search upstream fetch failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Failed to fetch search results", "")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Error("search upstream returned error status", "status", resp.StatusCode)
		api.RespondError(w, resp.StatusCode, "Failed to fetch search results", "")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		h.logger.Error("search upstream read failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Failed to fetch search results", "")
		return
	}

	var payload searchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Error("search upstream returned invalid JSON", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Failed to fetch search results", "")
		return
	}
	if len(payload.Errors) > 0 {
		h.logger.Error("search query failed", "error", payload.Errors[0].Message)
		api.RespondError(w, http.StatusBadGateway, "Search query failed", "")
		return
	}
	if len(payload.Data) == 0 {
		h.logger.Error("search upstream returned no data")
		api.RespondError(w, http.StatusBadGateway, "Failed to fetch search results", "")
		return
	}

	h.logger.Debug("search query forwarded", "length", len(req.Query))
	api.RespondRaw(w, http.StatusOK, payload.Data)
}
