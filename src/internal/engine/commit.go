package engine

import (
	"sort"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// ValidateCommit validates an edit together with its pending sibling values
// as one unit of change. Every field is checked against the snapshot with
// the other fields as pending values, the edited field first and the
// siblings in name order. It returns the verdict of the edited field and,
// when every field is accepted, the normalized values of all fields to write
// in a single commit. The first rejection is returned as is and fields is
// nil.
func (e *Engine) ValidateCommit(snapshot store.Reader, edit Edit) (Verdict, map[string][]string) {
	fields := make(map[string][]string, len(edit.Pending)+1)
	for name, values := range edit.Pending {
		fields[name] = normalizeField(edit.Collection, edit.ID, name, values)
	}
	fields[edit.Field] = normalizeField(edit.Collection, edit.ID, edit.Field, edit.Values)

	siblings := make([]string, 0, len(fields))
	for name := range fields {
		if name != edit.Field {
			siblings = append(siblings, name)
		}
	}
	sort.Strings(siblings)

	var primary Verdict
	changes := make(map[string][]string, len(fields))
	seen := make(map[Reference]bool)
	var dependents []Reference

	for _, name := range append([]string{edit.Field}, siblings...) {
		pending := make(map[string][]string, len(fields)-1)
		for other, values := range fields {
			if other != name {
				pending[other] = values
			}
		}

		v := e.Validate(snapshot, Edit{
			Collection: edit.Collection,
			ID:         edit.ID,
			Field:      name,
			Values:     fields[name],
			Pending:    pending,
		})
		if !v.OK {
			return v, nil
		}
		if name == edit.Field {
			primary = v
		}
		changes[name] = v.Normalized
		for _, ref := range v.Dependents {
			if !seen[ref] {
				seen[ref] = true
				dependents = append(dependents, ref)
			}
		}
	}

	primary.Dependents = dependents
	return primary, changes
}

func normalizeField(collection, id, field string, values []string) []string {
	spec, ok := config.LookupField(collection, id, field)
	if !ok {
		return values
	}
	return normalize(spec, values)
}
