package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/log"
)

// Format is the on-disk encoding of a FileStore.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// SettingsCollection holds singleton sections keyed by name
// (config, routing, dns) instead of an ordered list.
const SettingsCollection = "homeproxy"

// nameKey carries the record name inside list-shaped collections.
const nameKey = "name"

var settingsOrder = []string{"config", "routing", "dns"}

// FormatFromPath picks the encoding from the file extension. Anything that
// is not .yaml or .yml is treated as TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// FileStore is a MemoryStore persisted to a TOML or YAML file. Every
// successful write is flushed to disk before it returns.
type FileStore struct {
	*MemoryStore

	path   string
	format Format

	// writeMu serializes write+persist so the file always matches memory.
	writeMu sync.Mutex
	tables  map[string]bool
}

// OpenFileStore loads the store file at path. A missing file yields an
// empty store that will be created on the first write.
func OpenFileStore(path string) (*FileStore, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, pcerrors.NewStoreError("failed to get absolute path", err)
	}

	fs := &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        absPath,
		format:      FormatFromPath(absPath),
		tables:      map[string]bool{SettingsCollection: true},
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		log.Warnf("Store file not found, starting empty: %s", absPath)
		return fs, nil
	}

	if err := fs.Reload(); err != nil {
		return nil, err
	}

	log.Debugf("Store file path: %s", absPath)
	return fs, nil
}

// Path returns the absolute path of the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Reload replaces the in-memory content with the file content.
func (f *FileStore) Reload() error {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return pcerrors.NewStoreError("failed to read store file", err)
	}

	collections, tables, err := Decode(content, f.format)
	if err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.MemoryStore.Replace(collections)
	for name := range tables {
		f.tables[name] = true
	}
	return nil
}

func (f *FileStore) SetField(collection, name, field string, values []string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	before := f.MemoryStore.Dump()
	if err := f.MemoryStore.SetField(collection, name, field, values); err != nil {
		return err
	}
	return f.persist(before)
}

func (f *FileStore) SetFields(collection, name string, fields map[string][]string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	before := f.MemoryStore.Dump()
	if err := f.MemoryStore.SetFields(collection, name, fields); err != nil {
		return err
	}
	return f.persist(before)
}

func (f *FileStore) DeleteRecord(collection, name string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	before := f.MemoryStore.Dump()
	if err := f.MemoryStore.DeleteRecord(collection, name); err != nil {
		return err
	}
	return f.persist(before)
}

// persist writes the current content, restoring before when the write fails.
func (f *FileStore) persist(before map[string][]Record) error {
	buf, err := Encode(f.MemoryStore.Dump(), f.tables, f.format)
	if err != nil {
		f.MemoryStore.Replace(before)
		return err
	}
	if err := writeFileAtomic(f.path, buf.Bytes()); err != nil {
		f.MemoryStore.Replace(before)
		return pcerrors.NewStoreError("failed to write store file", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Decode parses a store document. List-shaped collections are arrays of
// tables carrying a "name" key; table-shaped collections map section names
// to options. The returned set names the table-shaped collections.
func Decode(content []byte, format Format) (map[string][]Record, map[string]bool, error) {
	var doc map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, nil, pcerrors.NewStoreError("failed to parse store file", err)
		}
	default:
		if err := toml.Unmarshal(content, &doc); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				log.Errorf("Error at line %d, column %d", row, col)
			}
			return nil, nil, pcerrors.NewStoreError("failed to parse store file", err)
		}
	}

	collections := make(map[string][]Record, len(doc))
	tables := make(map[string]bool)

	for collection, raw := range doc {
		switch v := raw.(type) {
		case []any:
			records, err := decodeList(collection, v)
			if err != nil {
				return nil, nil, err
			}
			collections[collection] = records
		case []map[string]any:
			items := make([]any, len(v))
			for i := range v {
				items[i] = v[i]
			}
			records, err := decodeList(collection, items)
			if err != nil {
				return nil, nil, err
			}
			collections[collection] = records
		case map[string]any:
			records, err := decodeTable(collection, v)
			if err != nil {
				return nil, nil, err
			}
			collections[collection] = records
			tables[collection] = true
		default:
			return nil, nil, pcerrors.NewStoreError(
				fmt.Sprintf("collection %q must be a list or a table, got %T", collection, raw), nil)
		}
	}

	return collections, tables, nil
}

func decodeList(collection string, items []any) ([]Record, error) {
	records := make([]Record, 0, len(items))
	seen := make(map[string]bool, len(items))

	for i, item := range items {
		options, ok := item.(map[string]any)
		if !ok {
			return nil, pcerrors.NewStoreError(
				fmt.Sprintf("%s[%d] must be a table, got %T", collection, i, item), nil)
		}
		name, _ := options[nameKey].(string)
		if name == "" {
			return nil, pcerrors.NewStoreError(
				fmt.Sprintf("%s[%d] has no %q", collection, i, nameKey), nil)
		}
		if seen[name] {
			return nil, pcerrors.NewStoreError(
				fmt.Sprintf("%s: duplicate record name %q", collection, name), nil)
		}
		seen[name] = true

		rec, err := decodeRecord(collection, name, options)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeTable(collection string, sections map[string]any) ([]Record, error) {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sortSections(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		options, ok := sections[name].(map[string]any)
		if !ok {
			return nil, pcerrors.NewStoreError(
				fmt.Sprintf("%s.%s must be a table, got %T", collection, name, sections[name]), nil)
		}
		rec, err := decodeRecord(collection, name, options)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// sortSections orders well-known settings sections first, then the rest
// alphabetically.
func sortSections(names []string) {
	rank := func(name string) int {
		for i, known := range settingsOrder {
			if name == known {
				return i
			}
		}
		return len(settingsOrder)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
}

func decodeRecord(collection, name string, options map[string]any) (Record, error) {
	rec := Record{Name: name, Fields: make(map[string][]string, len(options))}
	for key, raw := range options {
		if key == nameKey {
			continue
		}
		values, err := normalizeValue(raw)
		if err != nil {
			return Record{}, pcerrors.NewStoreError(
				fmt.Sprintf("%s.%s.%s: %v", collection, name, key, err), nil)
		}
		if len(values) > 0 {
			rec.Fields[key] = values
		}
	}
	return rec, nil
}

// normalizeValue flattens a decoded option into UCI string values. Booleans
// become "1"/"0" flags.
func normalizeValue(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	case []string:
		return append([]string(nil), v...), nil
	default:
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", raw)
	}
}

// Encode serializes collections. Collections named in tables are written as
// tables of named sections, the rest as arrays of tables.
func Encode(collections map[string][]Record, tables map[string]bool, format Format) (*bytes.Buffer, error) {
	doc := make(map[string]any, len(collections))

	for collection, records := range collections {
		if tables[collection] {
			sections := make(map[string]any, len(records))
			for _, r := range records {
				sections[r.Name] = encodeRecord(r, false)
			}
			doc[collection] = sections
			continue
		}
		items := make([]map[string]any, 0, len(records))
		for _, r := range records {
			items = append(items, encodeRecord(r, true))
		}
		doc[collection] = items
	}

	buf := bytes.Buffer{}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, pcerrors.NewStoreError("failed to serialize store", err)
		}
		if err := enc.Close(); err != nil {
			return nil, pcerrors.NewStoreError("failed to serialize store", err)
		}
	default:
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return nil, pcerrors.NewStoreError("failed to serialize store", err)
		}
	}
	return &buf, nil
}

func encodeRecord(r Record, withName bool) map[string]any {
	out := make(map[string]any, len(r.Fields)+1)
	if withName {
		out[nameKey] = r.Name
	}
	for key, values := range r.Fields {
		if len(values) == 1 {
			out[key] = values[0]
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	return out
}
