package api

import (
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/networking"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// RecordInfo is a store record as returned by the API.
type RecordInfo struct {
	ID     string              `json:"id"`
	Fields map[string][]string `json:"fields"`
}

func newRecordInfo(r store.Record) RecordInfo {
	fields := r.Fields
	if fields == nil {
		fields = map[string][]string{}
	}
	return RecordInfo{ID: r.Name, Fields: fields}
}

// RecordsResponse lists the records of a collection in store order.
type RecordsResponse struct {
	Collection string       `json:"collection"`
	Records    []RecordInfo `json:"records"`
}

// ValidateRequest proposes an edit without committing it.
type ValidateRequest struct {
	Collection string              `json:"collection"`
	ID         string              `json:"id"`
	Field      string              `json:"field"`
	Values     []string            `json:"values"`
	Pending    map[string][]string `json:"pending,omitempty"`
}

// EditRequest is the body of a field update. Pending values are committed
// together with the field.
type EditRequest struct {
	Values  []string            `json:"values"`
	Pending map[string][]string `json:"pending,omitempty"`
}

// EditError describes why an edit was rejected.
type EditError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// VerdictResponse is the outcome of validating an edit.
// Dependents lists references the edit leaves dangling.
type VerdictResponse struct {
	Valid      bool               `json:"valid"`
	ID         string             `json:"id,omitempty"`
	Values     []string           `json:"values"`
	Dependents []engine.Reference `json:"dependents,omitempty"`
	Committed  bool               `json:"committed"`
	Error      *EditError         `json:"error,omitempty"`
}

// CandidatesResponse lists the values a field may take.
type CandidatesResponse struct {
	Field      string             `json:"field"`
	Candidates []engine.Candidate `json:"candidates"`
}

// CheckProblem is one finding of the whole-store audit.
type CheckProblem struct {
	Item    string `json:"item,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CheckResponse returns the whole-store audit result.
type CheckResponse struct {
	Valid    bool           `json:"valid"`
	Problems []CheckProblem `json:"problems"`
}

// DeleteResponse reports the references left dangling by a deletion.
type DeleteResponse struct {
	Deleted bool                 `json:"deleted"`
	Report  *engine.DeleteReport `json:"report"`
}

// InterfacesResponse lists system interfaces and the state of bound ones.
type InterfacesResponse struct {
	Available []string                     `json:"available"`
	Bound     []networking.InterfaceStatus `json:"bound"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}
