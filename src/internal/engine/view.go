package engine

import (
	"strings"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

var strategyLabels = map[string]string{
	"prefer_ipv4": "Prefer IPv4",
	"prefer_ipv6": "Prefer IPv6",
	"ipv4_only":   "IPv4 only",
	"ipv6_only":   "IPv6 only",
}

// Candidates returns the values a caller may pick for a field of the
// record id (empty for a new record), computed from snapshot. Reference
// fields list built-ins first, then enabled records in store order, leaving
// out the record itself and anything that would close a chain loop.
// Enumerations and interface fields list their accepted values.
func (e *Engine) Candidates(snapshot store.Reader, collection, id, field string) ([]Candidate, error) {
	spec, ok := config.LookupField(collection, id, field)
	if !ok {
		return nil, pcerrors.Invalid(pcerrors.ErrCodeUnknownField, field, "")
	}

	if tf, ok := lookupTarget(collection, id, field); ok {
		cfg, err := config.Decode(snapshot)
		if err != nil {
			return nil, err
		}
		return referenceCandidates(cfg, tf, id), nil
	}

	switch {
	case spec.Name == "bind_interface" || spec.Name == "default_interface":
		return e.interfaceCandidates()
	case spec.IsFlag():
		return []Candidate{{Value: config.FlagOff, Label: "Disabled"}, {Value: config.FlagOn, Label: "Enabled"}}, nil
	}

	for _, tag := range spec.Tags {
		if params, ok := strings.CutPrefix(tag, "oneof="); ok {
			return enumCandidates(spec, strings.Fields(params)), nil
		}
	}

	return nil, pcerrors.Invalidf(pcerrors.ErrCodeInvalidValue, field, "", "{field} has no candidate list")
}

func referenceCandidates(cfg *config.Config, tf targetField, id string) []Candidate {
	out := append([]Candidate(nil), tf.builtins...)
	seen := make(map[string]bool, len(out))
	for _, b := range out {
		seen[b.Value] = true
	}

	self := ""
	switch tf.chain {
	case chainOutbound:
		for _, rn := range cfg.RoutingNodes {
			if rn.Name == id {
				self = rn.Tag()
			}
		}
	case chainResolver:
		if id != "" {
			self = config.DNSServerTag(id)
		}
	}

	var chain interface{ WouldCycle(from, to string) bool }
	switch tf.chain {
	case chainOutbound:
		chain = outboundChain(cfg, id)
	case chainResolver:
		chain = resolverChain(cfg, id)
	}

	for _, t := range targets(cfg, tf.source) {
		if !t.enabled || seen[t.value] {
			continue
		}
		if tf.excludeSelf && t.id == id {
			continue
		}
		if chain != nil && self != "" && chain.WouldCycle(self, t.value) {
			continue
		}
		seen[t.value] = true
		out = append(out, Candidate{Value: t.value, Label: t.label})
	}
	return out
}

func enumCandidates(spec config.FieldSpec, values []string) []Candidate {
	var out []Candidate
	if !spec.Required && !spec.List && spec.Default == "" {
		out = append(out, Candidate{Value: "", Label: "Default", Builtin: true})
	}
	for _, v := range values {
		label := v
		if l, ok := strategyLabels[v]; ok {
			label = l
		}
		out = append(out, Candidate{Value: v, Label: label})
	}
	return out
}

func (e *Engine) interfaceCandidates() ([]Candidate, error) {
	out := []Candidate{{Value: "", Label: "Default", Builtin: true}}
	if e.interfaces == nil {
		return out, nil
	}
	names, err := e.interfaces.InterfaceNames()
	if err != nil {
		return nil, pcerrors.NewInternalError("failed to list interfaces", err)
	}
	for _, name := range names {
		out = append(out, Candidate{Value: name, Label: name})
	}
	return out, nil
}
