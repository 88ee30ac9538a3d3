package engine

import (
	"github.com/maksimkurb/proxycfg/src/internal/config"
	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// Reference is a field of a record pointing at another record.
type Reference struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

// DeleteReport lists the references a deletion would leave dangling.
// Deletions are never refused; dangling references show up in Check.
type DeleteReport struct {
	Collection string      `json:"collection"`
	ID         string      `json:"id"`
	Dependents []Reference `json:"dependents"`
}

// ValidateDelete reports what deleting collection/id would break.
func (e *Engine) ValidateDelete(snapshot store.Reader, collection, id string) (*DeleteReport, error) {
	if collection == config.CollectionSettings || !config.KnownKind(collection, id) {
		return nil, pcerrors.Invalidf(pcerrors.ErrCodeInvalidValue, "collection", collection,
			"records of {value} cannot be deleted")
	}

	records, err := snapshot.ListRecords(collection)
	if err != nil {
		return nil, pcerrors.NewStoreError("failed to list records", err)
	}
	found := false
	for _, r := range records {
		found = found || r.Name == id
	}
	if !found {
		return nil, pcerrors.Invalid(pcerrors.ErrCodeReferenceNotFound, "id", id)
	}

	cfg, err := config.Decode(snapshot)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{Collection: collection, ID: id}
	switch collection {
	case config.CollectionNode:
		report.Dependents = nodeDependents(cfg, id)
	case config.CollectionRoutingNode:
		report.Dependents = routingNodeDependents(cfg, id)
	case config.CollectionDNSServer:
		report.Dependents = dnsServerDependents(cfg, id)
	}
	return report, nil
}

func nodeDependents(cfg *config.Config, name string) []Reference {
	var out []Reference
	tag := config.NodeTag(name)
	for _, rn := range cfg.RoutingNodes {
		if rn.Node == tag {
			out = append(out, Reference{config.CollectionRoutingNode, rn.Name, "node", tag})
		}
	}
	if cfg.Main.MainServer == name {
		out = append(out, Reference{config.CollectionSettings, config.SectionMain, "main_server", name})
	}
	if cfg.Main.MainUDPServer == name {
		out = append(out, Reference{config.CollectionSettings, config.SectionMain, "main_udp_server", name})
	}
	return out
}

func routingNodeDependents(cfg *config.Config, id string) []Reference {
	var tag string
	for _, rn := range cfg.RoutingNodes {
		if rn.Name == id {
			tag = rn.Tag()
		}
	}
	if tag == "" {
		return nil
	}
	// Another enabled routing node with the same tag keeps references valid.
	for _, rn := range cfg.RoutingNodes {
		if rn.Name != id && rn.Tag() == tag && rn.IsEnabled() {
			return nil
		}
	}

	var out []Reference
	for _, rn := range cfg.RoutingNodes {
		if rn.Name != id && rn.Outbound == tag {
			out = append(out, Reference{config.CollectionRoutingNode, rn.Name, "outbound", tag})
		}
	}
	for _, r := range cfg.RoutingRules {
		if r.Outbound == tag {
			out = append(out, Reference{config.CollectionRoutingRule, r.Name, "outbound", tag})
		}
	}
	for _, s := range cfg.DNSServers {
		if s.Outbound == tag {
			out = append(out, Reference{config.CollectionDNSServer, s.Name, "outbound", tag})
		}
	}
	for _, r := range cfg.DNSRules {
		for _, o := range r.Outbound {
			if o == tag {
				out = append(out, Reference{config.CollectionDNSRule, r.Name, "outbound", tag})
			}
		}
	}
	if cfg.Routing.DefaultOutbound == tag {
		out = append(out, Reference{config.CollectionSettings, config.SectionRouting, "default_outbound", tag})
	}
	return out
}

func dnsServerDependents(cfg *config.Config, id string) []Reference {
	var out []Reference
	tag := config.DNSServerTag(id)
	for _, s := range cfg.DNSServers {
		if s.Name != id && s.AddressResolver == tag {
			out = append(out, Reference{config.CollectionDNSServer, s.Name, "address_resolver", tag})
		}
	}
	for _, r := range cfg.DNSRules {
		if r.Server == tag {
			out = append(out, Reference{config.CollectionDNSRule, r.Name, "server", tag})
		}
	}
	if cfg.DNS.DefaultServer == tag {
		out = append(out, Reference{config.CollectionSettings, config.SectionDNS, "default_server", tag})
	}
	return out
}
