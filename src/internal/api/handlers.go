package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/hashing"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// newRecordID is the path id addressing a record that does not exist yet.
const newRecordID = "-"

// Handler serves the configuration API over one store.
type Handler struct {
	store   store.Store
	engine  *engine.Engine
	metrics *Metrics

	// editMu serializes validate+commit so a verdict always refers to the
	// snapshot it is committed to.
	editMu sync.Mutex
}

// NewHandler creates a new API handler.
func NewHandler(st store.Store, eng *engine.Engine, metrics *Metrics) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{
		store:   st,
		engine:  eng,
		metrics: metrics,
	}
}

// knownCollection reports whether collection can be addressed over the API.
func knownCollection(collection string) bool {
	if collection == config.CollectionSettings {
		return true
	}
	for _, c := range config.Collections {
		if c == collection {
			return true
		}
	}
	return false
}

// revision returns the checksum of the whole store, served as ETag.
func (h *Handler) revision() (string, error) {
	collections := append([]string{config.CollectionSettings}, config.Collections...)
	return hashing.Revision(h.store, collections...)
}

// setRevision sets the ETag header to the current store revision.
func (h *Handler) setRevision(w http.ResponseWriter) {
	if rev, err := h.revision(); err == nil {
		w.Header().Set("ETag", `"`+rev+`"`)
	}
}

// checkRevision rejects a write whose If-Match header names another store
// revision. Requests without If-Match always pass.
func (h *Handler) checkRevision(w http.ResponseWriter, r *http.Request) bool {
	want := strings.Trim(r.Header.Get("If-Match"), `"`)
	if want == "" || want == "*" {
		return true
	}
	rev, err := h.revision()
	if err != nil {
		WriteEngineError(w, err)
		return false
	}
	if rev != want {
		WritePreconditionFailed(w, "Configuration was changed since it was read")
		return false
	}
	return true
}

// recordID maps the "-" placeholder onto the empty id of a new record.
func recordID(id string) string {
	if id == newRecordID {
		return ""
	}
	return id
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// writeCreated writes a 201 Created response with data.
func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, data)
}

// decodeJSON decodes JSON from the request body.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
