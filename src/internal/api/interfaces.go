package api

import (
	"net/http"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/networking"
)

// GetInterfaces lists the interfaces offered for bind_interface and the
// state of those the configuration binds to.
// GET /api/v1/interfaces
func (h *Handler) GetInterfaces(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.engine.Candidates(h.store, config.CollectionSettings, config.SectionRouting, "default_interface")
	if err != nil {
		WriteEngineError(w, err)
		return
	}

	cfg, err := config.Decode(h.store)
	if err != nil {
		WriteEngineError(w, err)
		return
	}

	writeJSONData(w, InterfacesResponse{
		Available: interfaceNames(candidates),
		Bound:     networking.Inspect(networking.Bindings(cfg)),
	})
}

func interfaceNames(candidates []engine.Candidate) []string {
	names := []string{}
	for _, c := range candidates {
		if !c.Builtin {
			names = append(names, c.Value)
		}
	}
	return names
}
