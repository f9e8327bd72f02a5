// Package auth implements the session endpoints: sign-in against the CMS
// identity provider, silent token refresh, token validation, and cookie
// lifecycle. The gateway never stores credentials; it exchanges them for
// a JWT issued by the CMS and keeps the token in HttpOnly cookies so
// browser scripts cannot read it.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/meridian-labs/storegate/internal/api"
	"github.com/meridian-labs/storegate/internal/middleware"
)

// RefreshCookie carries the long-lived refresh token.
const RefreshCookie = "refresh_token"

// Cookie lifetimes.
const (
	authTokenTTL    = 7 * 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// loginMutation is the WPGraphQL JWT authentication entry point.
const loginMutation = `
mutation Login($username: String!, $password: String!) {
  login(input: { username: $username, password: $password }) {
    authToken
    refreshToken
    user {
      id
      databaseId
      email
      name
      username
    }
  }
}`

// refreshMutation exchanges a refresh token for a fresh auth token
// without re-prompting for credentials.
const refreshMutation = `
mutation RefreshToken($token: String!) {
  refreshJwtAuthToken(input: { jwtRefreshToken: $token }) {
    authToken
  }
}`

// viewerQuery resolves the user behind a bearer token.
const viewerQuery = `
query GetCurrentUser {
  viewer {
    id
    databaseId
    email
    name
    username
    roles {
      nodes {
        name
      }
    }
  }
}`

// Handler serves the auth endpoints.
type Handler struct {
	endpoint   string
	production bool
	client     *http.Client
	logger     *slog.Logger
}

// NewHandler wires the auth handler against the CMS GraphQL endpoint.
// In production, cookies are marked Secure.
func NewHandler(endpoint string, production bool, logger *slog.Logger) *Handler {
	return &Handler{
		endpoint:   endpoint,
		production: production,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type loginPayload struct {
	Data struct {
		Login struct {
			AuthToken    string          `json:"authToken"`
			RefreshToken string          `json:"refreshToken"`
			User         json.RawMessage `json:"user"`
		} `json:"login"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type refreshPayload struct {
	Data struct {
		RefreshJwtAuthToken struct {
			AuthToken string `json:"authToken"`
		} `json:"refreshJwtAuthToken"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type viewerPayload struct {
	Data struct {
		Viewer *struct {
			ID         string `json:"id"`
			DatabaseID int    `json:"databaseId"`
			Email      string `json:"email"`
			Name       string `json:"name"`
			Username   string `json:"username"`
			Roles      struct {
				Nodes []struct {
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"roles"`
		} `json:"viewer"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// User is the normalized identity returned by Me.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		api.RespondError(w, http.StatusBadRequest, "Missing credentials",
			"Username and password are required")
		return
	}

	var payload loginPayload
	err := h.graphqlPost(r.Context(), loginMutation, map[string]string{
		"username": req.Username,
		"password": req.Password,
	}, "", &payload)
	if err != nil {
		h.logger.Error("login upstream call failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Authentication unavailable",
			"Unable to reach the identity provider")
		return
	}

	login := payload.Data.Login
	if len(payload.Errors) > 0 || login.AuthToken == "" {
		msg := "Invalid username or password"
		if len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
			msg = payload.Errors[0].Message
		}
		h.logger.Warn("authentication rejected", "username", req.Username)
		api.RespondError(w, http.StatusUnauthorized, "Authentication failed", msg)
		return
	}

	h.setCookie(w, middleware.AuthCookie, login.AuthToken, authTokenTTL)
	if login.RefreshToken != "" {
		h.setCookie(w, RefreshCookie, login.RefreshToken, refreshTokenTTL)
	}

	h.logger.Info("user signed in", "username", req.Username)
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    login.User,
	})
}

// Logout handles POST /api/auth/logout: both token cookies are expired.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookies(w)
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Refresh handles POST /api/auth/refresh: the silent-refresh flow. A
// valid refresh cookie yields a new auth token; a rejected one expires
// both cookies so the client falls back to a full sign-in.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		api.RespondError(w, http.StatusUnauthorized, "No refresh token",
			"Please sign in again")
		return
	}

	var payload refreshPayload
	err = h.graphqlPost(r.Context(), refreshMutation, map[string]string{"token": c.Value}, "", &payload)
	if err != nil {
		h.logger.Error("token refresh upstream call failed", "error", err)
		api.RespondError(w, http.StatusBadGateway, "Authentication unavailable",
			"Unable to reach the identity provider")
		return
	}

	token := payload.Data.RefreshJwtAuthToken.AuthToken
	if len(payload.Errors) > 0 || token == "" {
		h.logger.Warn("token refresh rejected")
		h.clearCookies(w)
		api.RespondError(w, http.StatusUnauthorized, "Token refresh failed",
			"Session expired. Please sign in again.")
		return
	}

	h.setCookie(w, middleware.AuthCookie, token, authTokenTTL)
	h.logger.Debug("auth token refreshed")
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Token refreshed",
	})
}

// Me handles GET /api/auth/me: resolves the auth cookie to a user via
// the CMS viewer query. The routing middleware only checks that the
// cookie exists; this is where the token is actually validated, and an
// invalid one expires both cookies.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(middleware.AuthCookie)
	if err != nil || c.Value == "" {
		api.RespondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": "Not authenticated",
			"user":  nil,
		})
		return
	}

	var payload viewerPayload
	if err := h.graphqlPost(r.Context(), viewerQuery, nil, c.Value, &payload); err != nil {
		h.logger.Error("viewer query failed", "error", err)
		api.RespondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": "Server error",
			"user":  nil,
		})
		return
	}

	viewer := payload.Data.Viewer
	if len(payload.Errors) > 0 || viewer == nil {
		h.logger.Debug("token validation failed")
		h.clearCookies(w)
		api.RespondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": "Invalid token",
			"user":  nil,
		})
		return
	}

	roles := make([]string, 0, len(viewer.Roles.Nodes))
	for _, n := range viewer.Roles.Nodes {
		roles = append(roles, n.Name)
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user": User{
			ID:          strconv.Itoa(viewer.DatabaseID),
			Email:       viewer.Email,
			DisplayName: viewer.Name,
			Username:    viewer.Username,
			Roles:       roles,
		},
	})
}

// graphqlPost runs one GraphQL operation against the CMS and decodes the
// response into out. An empty bearer sends no Authorization header.
func (h *Handler) graphqlPost(ctx context.Context, query string, variables map[string]string, bearer string, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	return nil
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	h.setCookie(w, middleware.AuthCookie, "", -time.Hour)
	h.setCookie(w, RefreshCookie, "", -time.Hour)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
	if ttl < 0 {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
