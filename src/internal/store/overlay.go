package store

// Overlay is a read-only view of a Reader with one record's fields replaced.
// It lets callers evaluate a proposed edit without writing it.
type Overlay struct {
	base       Reader
	collection string
	name       string
	fields     map[string][]string
}

// NewOverlay returns a view of base in which the given fields of
// collection/name hold the proposed values. Empty values hide the field. A
// record that does not exist in base appears at the end of its collection.
func NewOverlay(base Reader, collection, name string, fields map[string][]string) *Overlay {
	copied := make(map[string][]string, len(fields))
	for k, v := range fields {
		copied[k] = append([]string(nil), v...)
	}
	return &Overlay{
		base:       base,
		collection: collection,
		name:       name,
		fields:     copied,
	}
}

func (o *Overlay) ListRecords(collection string) ([]Record, error) {
	records, err := o.base.ListRecords(collection)
	if err != nil || collection != o.collection {
		return records, err
	}

	for i := range records {
		if records[i].Name == o.name {
			records[i] = o.apply(records[i])
			return records, nil
		}
	}
	return append(records, o.apply(Record{Name: o.name})), nil
}

func (o *Overlay) GetField(collection, name, field string) ([]string, bool, error) {
	if collection == o.collection && name == o.name {
		if values, ok := o.fields[field]; ok {
			if len(values) == 0 {
				return nil, false, nil
			}
			return append([]string(nil), values...), true, nil
		}
	}
	return o.base.GetField(collection, name, field)
}

func (o *Overlay) apply(r Record) Record {
	out := r.Clone()
	for k, v := range o.fields {
		if len(v) == 0 {
			delete(out.Fields, k)
			continue
		}
		out.Fields[k] = append([]string(nil), v...)
	}
	return out
}
