package config

import (
	"fmt"
	"reflect"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// Decode reads every collection the engine knows about into a typed
// snapshot. Absent options take their declared default, or the zero value.
func Decode(r store.Reader) (*Config, error) {
	var (
		cfg = &Config{}
		err error
	)

	if cfg.Nodes, err = decodeCollection[Node](r, CollectionNode); err != nil {
		return nil, err
	}
	if cfg.RoutingNodes, err = decodeCollection[RoutingNode](r, CollectionRoutingNode); err != nil {
		return nil, err
	}
	if cfg.RoutingRules, err = decodeCollection[RoutingRule](r, CollectionRoutingRule); err != nil {
		return nil, err
	}
	if cfg.DNSServers, err = decodeCollection[DNSServer](r, CollectionDNSServer); err != nil {
		return nil, err
	}
	if cfg.DNSRules, err = decodeCollection[DNSRule](r, CollectionDNSRule); err != nil {
		return nil, err
	}

	settings, err := r.ListRecords(CollectionSettings)
	if err != nil {
		return nil, pcerrors.NewStoreError("failed to list settings", err)
	}
	sections := make(map[string]store.Record, len(settings))
	for _, rec := range settings {
		sections[rec.Name] = rec
	}
	decodeSection(sections, SectionMain, &cfg.Main)
	decodeSection(sections, SectionRouting, &cfg.Routing)
	decodeSection(sections, SectionDNS, &cfg.DNS)

	return cfg, nil
}

func decodeCollection[T any](r store.Reader, collection string) ([]T, error) {
	records, err := r.ListRecords(collection)
	if err != nil {
		return nil, pcerrors.NewStoreError(fmt.Sprintf("failed to list %s", collection), err)
	}
	k := kinds[collection]
	out := make([]T, len(records))
	for i, rec := range records {
		decodeRecord(k, rec, reflect.ValueOf(&out[i]).Elem())
	}
	return out, nil
}

func decodeSection[T any](sections map[string]store.Record, name string, out *T) {
	rec, ok := sections[name]
	if !ok {
		rec = store.Record{Name: name}
	}
	decodeRecord(kinds[kindKey(CollectionSettings, name)], rec, reflect.ValueOf(out).Elem())
}

func decodeRecord(k *recordKind, rec store.Record, v reflect.Value) {
	if f := v.FieldByName("Name"); f.IsValid() && f.Kind() == reflect.String {
		f.SetString(rec.Name)
	}

	for _, spec := range k.fields {
		f := v.FieldByIndex(spec.index)
		values, ok := rec.Fields[spec.Name]
		if !ok || len(values) == 0 {
			if spec.Default == "" {
				continue
			}
			values = []string{spec.Default}
		}

		if spec.List {
			f.Set(reflect.ValueOf(append([]string(nil), values...)))
		} else {
			f.SetString(values[0])
		}
	}
}

// DecodeRecord decodes a single record of collection into its typed form.
// The result is one of Node, RoutingNode, RoutingRule, DNSServer or DNSRule,
// or MainSettings, RoutingSettings or DNSSettings for settings sections.
func DecodeRecord(collection string, rec store.Record) (any, error) {
	k, ok := lookupKind(collection, rec.Name)
	if !ok {
		return nil, pcerrors.NewConfigError(fmt.Sprintf("unknown record kind %s", kindKey(collection, rec.Name)), nil)
	}
	v := reflect.New(k.typ).Elem()
	decodeRecord(k, rec, v)
	return v.Interface(), nil
}
