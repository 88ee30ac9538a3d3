package engine

import (
	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/graph"
)

// outboundChain links every routing node tag to its outbound. Disabled
// routing nodes are included: enabling one later must not close a loop.
func outboundChain(cfg *config.Config, excludeID string) *graph.Chain[string] {
	c := graph.NewChain(config.SentinelUnset, config.TargetDirect, config.TargetBlock)
	for _, rn := range cfg.RoutingNodes {
		if rn.Name == excludeID || rn.Tag() == "" {
			continue
		}
		c.AddVertex(rn.Tag())
		if rn.Outbound != "" {
			c.AddEdge(rn.Tag(), rn.Outbound)
		}
	}
	return c
}

// resolverChain links every DNS server tag to its address resolver.
func resolverChain(cfg *config.Config, excludeID string) *graph.Chain[string] {
	c := graph.NewChain(config.SentinelUnset, config.ResolverLocal)
	for _, s := range cfg.DNSServers {
		if s.Name == excludeID {
			continue
		}
		c.AddVertex(s.Tag())
		if s.AddressResolver != "" {
			c.AddEdge(s.Tag(), s.AddressResolver)
		}
	}
	return c
}

// OutboundPath returns the outbound chain starting at a routing node tag,
// ending on a built-in target or a tag without outbound.
func OutboundPath(cfg *config.Config, tag string) ([]string, error) {
	return outboundChain(cfg, "").Walk(tag)
}

// ResolverPath returns the address resolver chain starting at a DNS server
// tag.
func ResolverPath(cfg *config.Config, tag string) ([]string, error) {
	return resolverChain(cfg, "").Walk(tag)
}
