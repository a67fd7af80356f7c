// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/prommonitor/internal/config"
	"github.com/hamed0406/prommonitor/internal/maintenance"
)

func main() {
	role := flag.String("role", "all", "role to check: api, checker or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	if !preflight(os.Stdout, os.Stderr, cfg, *role) {
		os.Exit(1)
	}
}

// preflight reports on cfg for role and returns false when a check fails.
func preflight(stdout, stderr io.Writer, cfg config.Config, role string) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	var validate []func() error
	switch role {
	case "api":
		validate = append(validate, cfg.ValidateRecorder)
	case "checker":
		validate = append(validate, cfg.ValidateEvaluator)
	case "all":
		validate = append(validate, cfg.ValidateRecorder, cfg.ValidateEvaluator)
	default:
		fail(fmt.Sprintf("unknown role %q", role))
		return false
	}
	seen := map[string]bool{}
	for _, v := range validate {
		for _, e := range multierr.Errors(v()) {
			if !seen[e.Error()] {
				seen[e.Error()] = true
				fail(e.Error())
			}
		}
	}

	ok("ENVIRONMENT_NAME=" + cfg.EnvironmentName)
	ok("REGISTRY_BACKEND=" + cfg.RegistryBackend)
	if cfg.RegistryBackend == config.BackendMemory {
		warn("REGISTRY_BACKEND=memory: api and checker will not share state across processes.")
	}

	if role != "checker" {
		if len(cfg.AdminAPIKeys) == 0 {
			warn("ADMIN_API_KEYS is empty (DELETE /api/clusters is open).")
		}
		if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
			warn("PUBLIC_API_KEYS is empty (GET /api/clusters is open).")
		}
		for _, k := range append(append([]string{}, cfg.PublicAPIKeys...), cfg.AdminAPIKeys...) {
			if strings.Contains(k, " ") {
				warn("API key lists contain spaces; use comma-separated with no spaces, e.g. key1,key2")
				break
			}
		}
		if len(cfg.AllowedOrigins) == 0 {
			warn("ALLOWED_ORIGINS empty: CORS allows every origin.")
		} else {
			ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
		}
	}

	if role != "api" && len(cfg.MaintenanceClusters) > 0 {
		if loc, err := cfg.Location(); err == nil {
			oracle := maintenance.NewCronOracle(loc)
			for name, expr := range map[string]string{"SCALE_DOWN_CRON": cfg.ScaleDownCron, "SCALE_UP_CRON": cfg.ScaleUpCron} {
				if expr != "" && !oracle.IsValid(expr) {
					warn(fmt.Sprintf("%s=%q is not a valid cron expression; maintenance clusters will be evaluated as normal.", name, expr))
				}
			}
		}
		ok("maintenance clusters: " + strings.Join(cfg.MaintenanceClusters, ","))
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
