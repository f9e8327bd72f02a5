package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-labs/storegate/internal/auth"
	"github.com/meridian-labs/storegate/internal/config"
	"github.com/meridian-labs/storegate/internal/locale"
	"github.com/meridian-labs/storegate/internal/middleware"
	"github.com/meridian-labs/storegate/internal/orders"
	"github.com/meridian-labs/storegate/internal/payment"
	"github.com/meridian-labs/storegate/internal/preview"
	"github.com/meridian-labs/storegate/internal/rates"
	"github.com/meridian-labs/storegate/internal/region"
	"github.com/meridian-labs/storegate/internal/search"
	"github.com/meridian-labs/storegate/internal/woocommerce"
)

// Deps carries the constructed handlers that Routes mounts. Tests can
// assemble a partial Deps with fakes; Build wires the real thing.
type Deps struct {
	Policy  *middleware.Policy
	Preview *preview.Handler
	Payment *payment.Handler
	Orders  *orders.Handler
	Rates   *rates.Handler
	Auth    *auth.Handler
	Search  *search.Handler
	Region  *region.Handler
}

// Build constructs every handler from resolved configuration and returns
// the assembled gateway handler.
func Build(cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	upstream, err := preview.NewUpstream(cfg.Preview, cfg.WordPress.GraphQLEndpoint, cfg.IsProduction(), logger)
	if err != nil {
		return nil, fmt.Errorf("building preview upstream: %w", err)
	}

	wc := woocommerce.NewClient(
		cfg.WordPress.RESTBase(),
		cfg.WordPress.APIUser,
		cfg.WordPress.APIPassword,
		logger,
	)

	d := Deps{
		Policy:  middleware.NewPolicy(locale.NewSet(), logger),
		Preview: preview.NewHandler(cfg.Preview.Secret, cfg.WordPress.GraphQLEndpoint, upstream, logger),
		Payment: payment.NewHandler(payment.NewStripeRetriever(cfg.Stripe.SecretKey), wc, logger),
		Orders:  orders.NewHandler(wc, logger),
		Rates:   rates.NewHandler(rates.NewService(cfg.Rates.APIURL, cfg.Rates.TTL, logger)),
		Auth:    auth.NewHandler(cfg.WordPress.GraphQLEndpoint, cfg.IsProduction(), logger),
		Search:  search.NewHandler(cfg.WordPress.GraphQLEndpoint, logger),
		Region:  region.NewHandler(),
	}
	return Routes(d, logger), nil
}

// Routes mounts the API surface and puts everything else behind the
// access policy.
func Routes(d Deps, logger *slog.Logger) http.Handler {
	r := BaseRouter(logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/preview-proxy", d.Preview.Proxy)
		r.Get("/preview-proxy/health", d.Preview.Health)
		r.Post("/payment/confirm", d.Payment.Confirm)
		r.Get("/orders/{orderID}", d.Orders.Get)
		r.Get("/exchange-rates", d.Rates.Get)
		r.Post("/auth/login", d.Auth.Login)
		r.Post("/auth/logout", d.Auth.Logout)
		r.Post("/auth/refresh", d.Auth.Refresh)
		r.Get("/auth/me", d.Auth.Me)
		r.Post("/search", d.Search.Search)
		r.Get("/detect-region", d.Region.Get)
	})

	// Page paths are not rendered here. The policy issues redirects and
	// cache headers; a request it lets through gets a 204 and the CDN
	// falls back to the rendering origin.
	passthrough := d.Policy.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	r.NotFound(passthrough.ServeHTTP)

	return r
}
