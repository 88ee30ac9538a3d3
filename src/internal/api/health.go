package api

import (
	"fmt"
	"net/http"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/networking"
)

// CheckHealth performs health checks on the store and bound interfaces.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}

	cfg, err := config.Decode(h.store)
	if err != nil {
		response.Healthy = false
		response.Checks["store"] = CheckResult{
			Passed:  false,
			Message: "Failed to read configuration: " + err.Error(),
		}
		writeJSONData(w, response)
		return
	}
	response.Checks["store"] = CheckResult{Passed: true, Message: "Configuration is readable"}

	problems, err := h.check()
	switch {
	case err != nil:
		response.Healthy = false
		response.Checks["config_validation"] = CheckResult{
			Passed:  false,
			Message: "Configuration audit failed: " + err.Error(),
		}
	case len(problems) > 0:
		response.Healthy = false
		response.Checks["config_validation"] = CheckResult{
			Passed:  false,
			Message: fmt.Sprintf("Configuration has %d problem(s)", len(problems)),
		}
	default:
		response.Checks["config_validation"] = CheckResult{
			Passed:  true,
			Message: "Configuration is valid",
		}
	}

	missing := 0
	for _, s := range networking.Inspect(networking.Bindings(cfg)) {
		if !s.Exists {
			missing++
		}
	}
	if missing > 0 {
		// Tunnels may come up later; this does not make the store unhealthy.
		response.Checks["network_config"] = CheckResult{
			Passed:  false,
			Message: fmt.Sprintf("%d bound interface(s) not present", missing),
		}
	} else {
		response.Checks["network_config"] = CheckResult{
			Passed:  true,
			Message: "All bound interfaces are present",
		}
	}

	writeJSONData(w, response)
}
