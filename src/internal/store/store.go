// Package store defines the configuration store boundary and its in-memory
// and file-backed implementations.
//
// A store is a flat key/value database grouped into named collections, in the
// shape of a UCI package: every record has a name and a set of options, each
// option holding one value or a list of values. The validation engine only
// reads through Reader; Writer is used by hosts after a valid verdict.
package store

import (
	"fmt"
)

// Record is one named section of a collection.
type Record struct {
	Name   string
	Fields map[string][]string
}

// Get returns the first value of field.
func (r Record) Get(field string) (string, bool) {
	values, ok := r.Fields[field]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string][]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = append([]string(nil), v...)
	}
	return Record{Name: r.Name, Fields: fields}
}

// Reader gives read access to a configuration snapshot.
type Reader interface {
	// ListRecords returns the records of collection in store order.
	ListRecords(collection string) ([]Record, error)

	// GetField returns the values of a record's field. ok is false when the
	// record or the field is absent.
	GetField(collection, name, field string) (values []string, ok bool, err error)
}

// Writer commits validated mutations.
type Writer interface {
	// SetField sets a record's field, creating the record at the end of the
	// collection when needed. Empty values remove the field.
	SetField(collection, name, field string, values []string) error

	// SetFields sets several fields of one record at once. Either every
	// field is written or none is.
	SetFields(collection, name string, fields map[string][]string) error

	// DeleteRecord removes a record. Deleting an absent record is a no-op.
	DeleteRecord(collection, name string) error
}

// Store is a readable and writable configuration store.
type Store interface {
	Reader
	Writer
}

// GenerateName returns an unused anonymous section name for collection,
// following the UCI "cfgXXXXXX" convention.
func GenerateName(r Reader, collection string) (string, error) {
	records, err := r.ListRecords(collection)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(records))
	for _, rec := range records {
		used[rec.Name] = true
	}
	for n := len(records) + 1; ; n++ {
		name := fmt.Sprintf("cfg%06x", n)
		if !used[name] {
			return name, nil
		}
	}
}
