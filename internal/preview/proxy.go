// Package preview implements the draft-content preview proxy: an
// authenticated pass-through from the storefront to the CMS GraphQL
// endpoint, so editors can see unpublished content without the CMS
// credentials ever reaching a browser.
package preview

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/meridian-labs/storegate/internal/api"
)

// SecretHeader carries the shared preview secret.
const SecretHeader = "x-preview-secret"

// maxRequestBody bounds the proxied request body.
const maxRequestBody = 1 << 20

// Handler authenticates preview requests and forwards them upstream.
type Handler struct {
	secret   string
	endpoint string
	upstream Forwarder
	logger   *slog.Logger
}

// NewHandler builds the preview handler. An empty secret leaves preview
// mode disabled: every request is answered 503. The endpoint is only used
// for reporting by the health probe; the Forwarder owns the connection.
func NewHandler(secret, endpoint string, upstream Forwarder, logger *slog.Logger) *Handler {
	return &Handler{secret: secret, endpoint: endpoint, upstream: upstream, logger: logger}
}

type proxyRequest struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
}

// Proxy handles POST /api/preview-proxy.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Warn("preview request while preview mode disabled")
		api.RespondError(w, http.StatusServiceUnavailable, "Preview disabled", "")
		return
	}

	provided := r.Header.Get(SecretHeader)
	if provided == "" || !safeCompare(provided, h.secret) {
		h.logger.Warn("preview request with invalid secret")
		api.RespondError(w, http.StatusUnauthorized, "Invalid or missing preview secret", "")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.logger.Error("preview body read failed", "error", err)
		api.RespondError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}

	var body proxyRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		h.logger.Error("preview request with invalid JSON body", "error", err)
		api.RespondError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}
	if body.Query == "" {
		h.logger.Error("preview request missing query")
		api.RespondError(w, http.StatusBadRequest, "Missing query", "")
		return
	}

	res, err := h.upstream.Forward(r.Context(), body.Query, body.Variables)
	if err != nil {
		h.respondUpstreamError(w, err)
		return
	}

	// Upstream errors are normalized rather than forwarded: callers get a
	// 502 with the upstream status, never the upstream body.
	if res.Status < 200 || res.Status > 299 {
		h.logger.Error("preview upstream returned error status", "status", res.Status)
		api.RespondJSON(w, http.StatusBadGateway, api.ErrorBody{
			Error:          "Upstream error",
			UpstreamStatus: res.Status,
		})
		return
	}

	if json.Valid(res.Body) {
		h.logger.Debug("preview query forwarded", "status", res.Status)
		api.RespondRaw(w, res.Status, res.Body)
		return
	}
	api.RespondJSON(w, res.Status, map[string]string{"raw": string(res.Body)})
}

// respondUpstreamError maps transport failures onto the 502 contract
// without leaking upstream details.
func (h *Handler) respondUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("preview upstream timed out")
		api.RespondError(w, http.StatusBadGateway, "Upstream request timed out", "")
	case isTLSVerificationError(err):
		h.logger.Error("preview upstream TLS verification failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Upstream TLS verification failed",
			"Trust the CMS certificate authority via PREVIEW_CA_PATH, or set PREVIEW_ALLOW_INSECURE=true for local development.")
	default:
		h.logger.Error("preview upstream fetch failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Upstream fetch failed", "")
	}
}

// safeCompare compares secrets in constant time. Hashing first makes the
// comparison length-independent.
func safeCompare(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
