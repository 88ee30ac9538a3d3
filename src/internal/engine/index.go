package engine

import (
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// CheckUnique reports whether no record other than excludeID holds candidate
// in field.
func CheckUnique(records []store.Record, field, candidate, excludeID string) bool {
	for _, r := range records {
		if r.Name == excludeID {
			continue
		}
		if v, ok := r.Get(field); ok && v == candidate {
			return false
		}
	}
	return true
}

// Index maps the values of one field to the records holding them.
type Index struct {
	field  string
	owners map[string][]string
	order  []string
}

// NewIndex indexes field over records. Empty values are not indexed.
func NewIndex(records []store.Record, field string) *Index {
	idx := &Index{
		field:  field,
		owners: make(map[string][]string),
	}
	for _, r := range records {
		v, ok := r.Get(field)
		if !ok || v == "" {
			continue
		}
		if _, seen := idx.owners[v]; !seen {
			idx.order = append(idx.order, v)
		}
		idx.owners[v] = append(idx.owners[v], r.Name)
	}
	return idx
}

// Owners returns the records holding value, in store order.
func (idx *Index) Owners(value string) []string {
	return idx.owners[value]
}

// Duplicates returns the values held by more than one record, in the order
// they first appear.
func (idx *Index) Duplicates() []string {
	var out []string
	for _, v := range idx.order {
		if len(idx.owners[v]) > 1 {
			out = append(out, v)
		}
	}
	return out
}
