package engine

import (
	"errors"
	"fmt"

	"github.com/maksimkurb/proxycfg/src/internal/codec"
	"github.com/maksimkurb/proxycfg/src/internal/config"
	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// Check audits the whole committed store: the declared syntax of every
// record, then every reference rule as if each field had just been edited.
// It returns config.ValidationErrors, or nil for a consistent store.
func (e *Engine) Check(snapshot store.Reader) error {
	cfg, err := config.Decode(snapshot)
	if err != nil {
		return err
	}

	var validationErrors config.ValidationErrors
	if err := cfg.ValidateConfig(); err != nil {
		var ve config.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		validationErrors = append(validationErrors, ve...)
	}

	for _, collection := range config.Collections {
		records, err := snapshot.ListRecords(collection)
		if err != nil {
			return pcerrors.NewStoreError(fmt.Sprintf("failed to list %s", collection), err)
		}
		for _, rec := range records {
			validationErrors = append(validationErrors, checkRecord(snapshot, cfg, collection, rec)...)
		}
	}

	for _, section := range []string{config.SectionMain, config.SectionRouting, config.SectionDNS} {
		rec := settingsRecord(cfg, section)
		for _, ve := range checkRecord(snapshot, cfg, config.CollectionSettings, rec) {
			ve.ItemName = ""
			validationErrors = append(validationErrors, ve)
		}
	}

	validationErrors = append(validationErrors, checkResolverHints(cfg)...)

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

// checkRecord runs the reference rules of every field the record holds.
func checkRecord(snapshot store.Reader, cfg *config.Config, collection string, rec store.Record) config.ValidationErrors {
	var out config.ValidationErrors

	itemName := rec.Name
	if label, ok := rec.Get("label"); ok && label != "" {
		itemName = label
	}

	for _, spec := range config.Fields(collection, rec.Name) {
		values := normalize(spec, rec.Fields[spec.Name])
		if len(values) == 0 {
			continue
		}
		ctx := &editContext{
			snapshot: snapshot,
			edit: Edit{
				Collection: collection,
				ID:         rec.Name,
				Field:      spec.Name,
				Values:     values,
			},
			values:    values,
			committed: cfg,
			proposed:  cfg,
		}
		if err := ctx.checkReferences(); err != nil {
			out = append(out, config.ValidationError{
				ItemName:  itemName,
				FieldPath: collection + "." + spec.Name,
				Message:   message(err),
			})
		}
	}

	for field := range rec.Fields {
		if collection == config.CollectionNode {
			break
		}
		if _, ok := config.LookupField(collection, rec.Name, field); !ok {
			out = append(out, config.ValidationError{
				ItemName:  itemName,
				FieldPath: collection + "." + field,
				Message:   message(pcerrors.Invalid(pcerrors.ErrCodeUnknownField, field, "")),
			})
		}
	}
	return out
}

// settingsRecord rebuilds a settings section with its defaults applied, so
// defaulted references are audited too.
func settingsRecord(cfg *config.Config, section string) store.Record {
	rec := store.Record{Name: section, Fields: make(map[string][]string)}
	set := func(field, value string) {
		if value != "" {
			rec.Fields[field] = []string{value}
		}
	}
	switch section {
	case config.SectionMain:
		set("main_server", cfg.Main.MainServer)
		set("main_udp_server", cfg.Main.MainUDPServer)
	case config.SectionRouting:
		set("default_outbound", cfg.Routing.DefaultOutbound)
	case config.SectionDNS:
		set("default_server", cfg.DNS.DefaultServer)
	}
	return rec
}

// checkResolverHints reports DNS servers whose address is a domain name but
// which have no address resolver.
func checkResolverHints(cfg *config.Config) config.ValidationErrors {
	var out config.ValidationErrors
	for _, s := range cfg.DNSServers {
		if s.AddressResolver != "" {
			continue
		}
		addr, err := codec.ParseServerAddress(s.Address)
		if err != nil || !addr.NeedsResolver() {
			continue
		}
		name := s.Label
		if name == "" {
			name = s.Name
		}
		out = append(out, config.ValidationError{
			ItemName:  name,
			FieldPath: config.CollectionDNSServer + ".address_resolver",
			Message:   fmt.Sprintf("required because address %s contains a domain name", s.Address),
		})
	}
	return out
}

func message(err error) string {
	var e *pcerrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
