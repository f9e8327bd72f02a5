package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/meridian-labs/storegate/internal/config"
)

// probeTimeout bounds the doctor's endpoint reachability checks.
const probeTimeout = 5 * time.Second

// check is one row of the doctor report.
type check struct {
	Name   string
	Status string
	Detail string
}

const (
	statusOK   = "OK"
	statusWarn = "WARN"
	statusFail = "FAIL"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check gateway configuration and upstream connectivity",
		Long: `Resolve the configuration the serve command would run with and report on
each subsystem: WordPress reachability, WooCommerce credentials, the
preview proxy, Stripe, and exchange rates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, nil)
			if err != nil {
				return fmt.Errorf("configuration is not runnable: %w", err)
			}

			checks := runChecks(cmd.Context(), cfg)
			renderChecks(cmd, checks)

			for _, c := range checks {
				if c.Status == statusFail {
					return fmt.Errorf("%d of %d checks failed", countFailed(checks), len(checks))
				}
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cfg *config.Config) []check {
	checks := []check{
		probeEndpoint(ctx, "WordPress GraphQL", cfg.WordPress.GraphQLEndpoint),
	}

	if cfg.WordPress.APIUser != "" && cfg.WordPress.APIPassword != "" {
		checks = append(checks, check{"WooCommerce credentials", statusOK, "api user and password set"})
	} else {
		checks = append(checks, check{"WooCommerce credentials", statusWarn,
			"missing WORDPRESS_API_USER / WORDPRESS_API_PASSWORD; order creation and lookups will fail"})
	}

	checks = append(checks, previewCheck(cfg))

	switch {
	case cfg.Stripe.SecretKey == "":
		checks = append(checks, check{"Stripe", statusWarn,
			"STRIPE_SECRET_KEY not set; payment confirmation will fail"})
	case !strings.HasPrefix(cfg.Stripe.SecretKey, "sk_") && !strings.HasPrefix(cfg.Stripe.SecretKey, "rk_"):
		checks = append(checks, check{"Stripe", statusWarn, "secret key does not look like an API key"})
	default:
		checks = append(checks, check{"Stripe", statusOK, "secret key set"})
	}

	checks = append(checks, probeEndpoint(ctx, "Exchange rates", cfg.Rates.APIURL))
	return checks
}

func previewCheck(cfg *config.Config) check {
	if cfg.Preview.Secret == "" {
		return check{"Preview proxy", statusWarn, "PREVIEW_SECRET not set; preview is disabled"}
	}
	detail := "enabled"
	if cfg.Preview.CAPath != "" {
		if _, err := os.ReadFile(cfg.Preview.CAPath); err != nil {
			return check{"Preview proxy", statusFail, fmt.Sprintf("CA file unreadable: %v", err)}
		}
		detail = "enabled, custom CA loaded"
	}
	if cfg.Preview.AllowInsecure {
		detail += ", TLS verification relaxed"
	}
	return check{"Preview proxy", statusOK, detail}
}

func probeEndpoint(ctx context.Context, name, url string) check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return check{name, statusFail, fmt.Sprintf("invalid URL %q: %v", url, err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return check{name, statusFail, fmt.Sprintf("unreachable: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	// Any HTTP answer proves reachability; auth and method errors are
	// expected against a bare GET.
	return check{name, statusOK, fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode)}
}

func renderChecks(cmd *cobra.Command, checks []check) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, c := range checks {
		t.AppendRow(table.Row{c.Name, c.Status, c.Detail})
	}
	t.Render()
}

func countFailed(checks []check) int {
	n := 0
	for _, c := range checks {
		if c.Status == statusFail {
			n++
		}
	}
	return n
}
