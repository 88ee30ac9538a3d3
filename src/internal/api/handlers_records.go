package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// GetRecords returns all records of a collection.
// GET /api/v1/{collection}
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if !knownCollection(collection) {
		WriteNotFound(w, fmt.Sprintf("Collection '%s'", collection))
		return
	}

	records, err := h.store.ListRecords(collection)
	if err != nil {
		WriteEngineError(w, err)
		return
	}

	h.setRevision(w)
	response := RecordsResponse{Collection: collection, Records: make([]RecordInfo, 0, len(records))}
	for _, rec := range records {
		response.Records = append(response.Records, newRecordInfo(rec))
	}
	writeJSONData(w, response)
}

// ValidateEdit returns the verdict of a proposed edit without committing it.
// POST /api/v1/validate
func (h *Handler) ValidateEdit(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	if !knownCollection(req.Collection) || req.Field == "" {
		WriteInvalidRequest(w, "collection and field are required")
		return
	}

	edit := engine.Edit{
		Collection: req.Collection,
		ID:         recordID(req.ID),
		Field:      req.Field,
		Values:     req.Values,
		Pending:    req.Pending,
	}
	verdict, _ := h.engine.ValidateCommit(h.store, edit)
	h.metrics.recordVerdict(edit.Collection, edit.Field, verdictCode(verdict))

	writeJSONData(w, newVerdictResponse(verdict, req.ID, false))
}

// UpdateField validates an edit and commits it when accepted. Pending
// sibling values are validated with the field and written in the same
// commit. The "-" id creates a new record under a generated name.
// PUT /api/v1/{collection}/{id}/{field}
func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	field := chi.URLParam(r, "field")
	if !knownCollection(collection) {
		WriteNotFound(w, fmt.Sprintf("Collection '%s'", collection))
		return
	}

	var req EditRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	h.editMu.Lock()
	defer h.editMu.Unlock()

	if !h.checkRevision(w, r) {
		return
	}

	edit := engine.Edit{
		Collection: collection,
		ID:         recordID(id),
		Field:      field,
		Values:     req.Values,
		Pending:    req.Pending,
	}
	verdict, fields := h.engine.ValidateCommit(h.store, edit)
	h.metrics.recordVerdict(collection, field, verdictCode(verdict))
	if !verdict.OK {
		resp := newVerdictResponse(verdict, id, false)
		WriteValidationError(w, resp.Error.Message, map[string]interface{}{
			"code":  resp.Error.Code,
			"field": resp.Error.Field,
			"value": resp.Error.Value,
		})
		return
	}

	created := false
	if edit.ID == "" {
		name, err := store.GenerateName(h.store, collection)
		if err != nil {
			WriteEngineError(w, err)
			return
		}
		id, created = name, true
	}

	if err := h.store.SetFields(collection, id, fields); err != nil {
		WriteEngineError(w, err)
		return
	}
	log.Infof("Committed %s.%s %v", collection, id, fields)
	for _, ref := range verdict.Dependents {
		log.Warnf("%s.%s.%s = %s is left dangling", ref.Collection, ref.ID, ref.Field, ref.Value)
	}

	h.setRevision(w)
	resp := newVerdictResponse(verdict, id, true)
	if created {
		writeCreated(w, resp)
		return
	}
	writeJSONData(w, resp)
}

// DeleteRecord reports the references a deletion leaves dangling, then
// deletes the record.
// DELETE /api/v1/{collection}/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	h.editMu.Lock()
	defer h.editMu.Unlock()

	if !h.checkRevision(w, r) {
		return
	}

	report, err := h.engine.ValidateDelete(h.store, collection, id)
	if err != nil {
		WriteEngineError(w, err)
		return
	}

	if err := h.store.DeleteRecord(collection, id); err != nil {
		WriteEngineError(w, err)
		return
	}
	h.metrics.recordDelete(collection)
	if len(report.Dependents) > 0 {
		log.Warnf("Deleted %s.%s, %d reference(s) left dangling", collection, id, len(report.Dependents))
	}

	writeJSONData(w, DeleteResponse{Deleted: true, Report: report})
}

// GetCandidates returns the values a field may take.
// GET /api/v1/{collection}/{id}/{field}/candidates
func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := recordID(chi.URLParam(r, "id"))
	field := chi.URLParam(r, "field")

	candidates, err := h.engine.Candidates(h.store, collection, id, field)
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	if candidates == nil {
		candidates = []engine.Candidate{}
	}
	writeJSONData(w, CandidatesResponse{Field: field, Candidates: candidates})
}

// CheckStore audits the whole committed store.
// GET /api/v1/check
func (h *Handler) CheckStore(w http.ResponseWriter, r *http.Request) {
	problems, err := h.check()
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	h.setRevision(w)
	writeJSONData(w, CheckResponse{Valid: len(problems) == 0, Problems: problems})
}

func (h *Handler) check() ([]CheckProblem, error) {
	problems := []CheckProblem{}
	err := h.engine.Check(h.store)
	var ve config.ValidationErrors
	if errors.As(err, &ve) {
		for _, e := range ve {
			problems = append(problems, CheckProblem{Item: e.ItemName, Field: e.FieldPath, Message: e.Message})
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	h.metrics.recordCheck(len(problems))
	return problems, nil
}

func verdictCode(v engine.Verdict) string {
	if v.OK || v.Err == nil {
		return ""
	}
	return string(v.Err.Code)
}

func newVerdictResponse(v engine.Verdict, id string, committed bool) VerdictResponse {
	resp := VerdictResponse{
		Valid:      v.OK,
		ID:         id,
		Values:     v.Normalized,
		Dependents: v.Dependents,
		Committed:  committed,
	}
	if resp.Values == nil {
		resp.Values = []string{}
	}
	if !v.OK && v.Err != nil {
		resp.Error = &EditError{
			Code:    string(v.Err.Code),
			Field:   v.Err.Field,
			Value:   v.Err.Value,
			Message: v.Err.Message,
		}
	}
	return resp
}
