package engine

import (
	"github.com/maksimkurb/proxycfg/src/internal/config"
)

// Candidate is one legal value of a reference field.
type Candidate struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Builtin bool   `json:"builtin,omitempty"`
}

type targetSource int

const (
	sourceNone targetSource = iota
	sourceNodeTags
	sourceNodeNames
	sourceRoutingNodes
	sourceDNSServers
)

type chainKind int

const (
	chainNone chainKind = iota
	chainOutbound
	chainResolver
)

// targetField declares which values a reference field accepts: built-ins in
// display order, then records of source.
type targetField struct {
	builtins    []Candidate
	source      targetSource
	excludeSelf bool
	chain       chainKind
}

func (tf targetField) isBuiltin(value string) bool {
	for _, b := range tf.builtins {
		if b.Value == value {
			return true
		}
	}
	return false
}

var (
	optDefault  = Candidate{Value: config.SentinelUnset, Label: "Default", Builtin: true}
	optNone     = Candidate{Value: config.SentinelUnset, Label: "None", Builtin: true}
	optDisable  = Candidate{Value: config.SentinelNil, Label: "Disable", Builtin: true}
	optSame     = Candidate{Value: config.SentinelSame, Label: "Same as main server", Builtin: true}
	optDirect   = Candidate{Value: config.TargetDirect, Label: "Direct", Builtin: true}
	optBlock    = Candidate{Value: config.TargetBlock, Label: "Block", Builtin: true}
	optLocalDNS = Candidate{Value: config.ResolverLocal, Label: "System DNS resolver", Builtin: true}
	optBlockDNS = Candidate{Value: config.ResolverBlock, Label: "Block DNS queries", Builtin: true}
)

// targetFields is keyed by record kind, then field.
var targetFields = map[string]map[string]targetField{
	config.CollectionRoutingNode: {
		"node": {
			source: sourceNodeTags,
		},
		"outbound": {
			builtins:    []Candidate{optDefault, optDirect},
			source:      sourceRoutingNodes,
			excludeSelf: true,
			chain:       chainOutbound,
		},
	},
	config.CollectionRoutingRule: {
		"outbound": {
			builtins: []Candidate{optDirect, optBlock},
			source:   sourceRoutingNodes,
		},
	},
	config.CollectionDNSServer: {
		"address_resolver": {
			builtins:    []Candidate{optNone, optLocalDNS},
			source:      sourceDNSServers,
			excludeSelf: true,
			chain:       chainResolver,
		},
		"outbound": {
			builtins: []Candidate{optDirect},
			source:   sourceRoutingNodes,
		},
	},
	config.CollectionDNSRule: {
		"outbound": {
			builtins: []Candidate{optDirect, optBlock},
			source:   sourceRoutingNodes,
		},
		"server": {
			builtins: []Candidate{optLocalDNS, optBlockDNS},
			source:   sourceDNSServers,
		},
	},
	config.CollectionSettings + "." + config.SectionMain: {
		"main_server": {
			builtins: []Candidate{optDisable},
			source:   sourceNodeNames,
		},
		"main_udp_server": {
			builtins: []Candidate{optDisable, optSame},
			source:   sourceNodeNames,
		},
	},
	config.CollectionSettings + "." + config.SectionRouting: {
		"default_outbound": {
			builtins: []Candidate{optDisable, optDirect, optBlock},
			source:   sourceRoutingNodes,
		},
	},
	config.CollectionSettings + "." + config.SectionDNS: {
		"default_server": {
			builtins: []Candidate{optLocalDNS},
			source:   sourceDNSServers,
		},
	},
}

func kindOf(collection, id string) string {
	if collection == config.CollectionSettings {
		return collection + "." + id
	}
	return collection
}

func lookupTarget(collection, id, field string) (targetField, bool) {
	tf, ok := targetFields[kindOf(collection, id)][field]
	return tf, ok
}

// target is a record a reference can resolve to.
type target struct {
	id      string
	value   string
	label   string
	enabled bool
}

// targets lists the records of source in store order.
func targets(cfg *config.Config, source targetSource) []target {
	var out []target
	switch source {
	case sourceNodeTags:
		for _, n := range cfg.Nodes {
			out = append(out, target{id: n.Name, value: n.Tag(), label: n.DisplayName(), enabled: true})
		}
	case sourceNodeNames:
		for _, n := range cfg.Nodes {
			out = append(out, target{id: n.Name, value: n.Name, label: n.DisplayName(), enabled: true})
		}
	case sourceRoutingNodes:
		for _, rn := range cfg.RoutingNodes {
			if rn.Tag() == "" {
				continue
			}
			out = append(out, target{id: rn.Name, value: rn.Tag(), label: rn.Label, enabled: rn.IsEnabled()})
		}
	case sourceDNSServers:
		for _, s := range cfg.DNSServers {
			out = append(out, target{id: s.Name, value: s.Tag(), label: s.Label, enabled: s.IsEnabled()})
		}
	}
	return out
}
