package preview

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/meridian-labs/storegate/internal/config"
)

// maxUpstreamBody caps how much of an upstream response is read back.
const maxUpstreamBody = 4 << 20

// Result is an upstream GraphQL response: the status code and the raw body.
type Result struct {
	Status int
	Body   []byte
}

// Forwarder sends one GraphQL request upstream. Exactly one attempt is
// made per call; retries are the caller's business, and no caller retries.
type Forwarder interface {
	Forward(ctx context.Context, query string, variables json.RawMessage) (*Result, error)
}

// Upstream forwards preview queries to the CMS GraphQL endpoint, with
// optional Basic auth and a custom TLS trust anchor for local CMS setups.
type Upstream struct {
	endpoint string
	username string
	password string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewUpstream builds the upstream client from preview configuration.
// A CA file, when configured, replaces the system pool for the upstream
// connection. AllowInsecure skips verification entirely; Validate has
// already refused that combination in production.
func NewUpstream(cfg config.PreviewConfig, endpoint string, production bool, logger *slog.Logger) (*Upstream, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	switch {
	case cfg.CAPath != "":
		pem, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read preview CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("preview CA file %s contains no certificates", cfg.CAPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
		logger.Info("preview upstream using custom CA", "path", cfg.CAPath)
	case cfg.AllowInsecure && !production:
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		logger.Warn("preview upstream TLS verification disabled (development only)")
	}

	return &Upstream{
		endpoint: endpoint,
		username: cfg.User,
		password: cfg.AppPassword,
		timeout:  cfg.FetchTimeout,
		client:   &http.Client{Transport: transport},
		logger:   logger,
	}, nil
}

// Forward posts {query, variables} to the CMS and returns the raw result.
// The call is bounded by the configured timeout; the deadline is released
// on every exit path.
func (u *Upstream) Forward(ctx context.Context, query string, variables json.RawMessage) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	payload, err := json.Marshal(struct {
		Query     string          `json:"query"`
		Variables json.RawMessage `json:"variables,omitempty"`
	}{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.username != "" && u.password != "" {
		req.SetBasicAuth(u.username, u.password)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &Result{Status: resp.StatusCode, Body: body}, nil
}

// isTLSVerificationError reports whether the upstream failure was a
// certificate problem, so the handler can hint at the CA configuration.
func isTLSVerificationError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &authorityErr) || errors.As(err, &hostnameErr) || errors.As(err, &invalidErr)
}
