package store

import (
	"sort"
	"sync"
)

// MemoryStore is an ordered in-memory store. Reads return copies, so callers
// may keep the records they received after the store changes.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]*Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*Record),
	}
}

// Collections returns the names of all non-empty collections, sorted.
func (m *MemoryStore) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name, records := range m.collections {
		if len(records) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *MemoryStore) ListRecords(collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.collections[collection]
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *MemoryStore) GetField(collection, name, field string) ([]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := m.find(collection, name)
	if r == nil {
		return nil, false, nil
	}
	values, ok := r.Fields[field]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), values...), true, nil
}

func (m *MemoryStore) SetField(collection, name, field string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setField(collection, name, field, values)
	return nil
}

func (m *MemoryStore) SetFields(collection, name string, fields map[string][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		m.setField(collection, name, field, fields[field])
	}
	return nil
}

func (m *MemoryStore) DeleteRecord(collection, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.collections[collection]
	for i, r := range records {
		if r.Name == name {
			m.collections[collection] = append(records[:i:i], records[i+1:]...)
			break
		}
	}
	return nil
}

// AddRecord appends a copy of r to collection, replacing a record with the
// same name in place.
func (m *MemoryStore) AddRecord(collection string, r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.putRecord(collection, r)
}

// Replace swaps the whole content of the store.
func (m *MemoryStore) Replace(collections map[string][]Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections = make(map[string][]*Record, len(collections))
	for name, records := range collections {
		for _, r := range records {
			m.putRecord(name, r)
		}
	}
}

// Dump returns a deep copy of every collection.
func (m *MemoryStore) Dump() map[string][]Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]Record, len(m.collections))
	for name, records := range m.collections {
		if len(records) == 0 {
			continue
		}
		copies := make([]Record, 0, len(records))
		for _, r := range records {
			copies = append(copies, r.Clone())
		}
		out[name] = copies
	}
	return out
}

func (m *MemoryStore) find(collection, name string) *Record {
	for _, r := range m.collections[collection] {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (m *MemoryStore) putRecord(collection string, r Record) {
	c := r.Clone()
	if existing := m.find(collection, r.Name); existing != nil {
		*existing = c
		return
	}
	m.collections[collection] = append(m.collections[collection], &c)
}

func (m *MemoryStore) setField(collection, name, field string, values []string) {
	r := m.find(collection, name)
	if r == nil {
		r = &Record{Name: name, Fields: make(map[string][]string)}
		m.collections[collection] = append(m.collections[collection], r)
	}
	if len(values) == 0 {
		delete(r.Fields, field)
		return
	}
	r.Fields[field] = append([]string(nil), values...)
}
