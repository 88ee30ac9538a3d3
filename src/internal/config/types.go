package config

import (
	"fmt"
)

// Collection names as stored in the homeproxy package.
const (
	CollectionNode        = "node"
	CollectionRoutingNode = "routing_node"
	CollectionRoutingRule = "routing_rule"
	CollectionDNSServer   = "dns_server"
	CollectionDNSRule     = "dns_rule"
	CollectionSettings    = "homeproxy"
)

// Singleton sections of the settings collection.
const (
	SectionMain    = "config"
	SectionRouting = "routing"
	SectionDNS     = "dns"
)

// Built-in targets. They are never stored as records.
const (
	TargetDirect   = "direct-out"
	TargetBlock    = "block-out"
	ResolverLocal  = "local-dns"
	ResolverBlock  = "block-dns"
	SentinelNil    = "nil"
	SentinelSame   = "same"
	SentinelUnset  = ""
	outboundSuffix = "-out"
	resolverSuffix = "-dns"
)

// UCI flag values.
const (
	FlagOn  = "1"
	FlagOff = "0"
)

// Collections lists the record collections in the order they are audited.
var Collections = []string{
	CollectionNode,
	CollectionRoutingNode,
	CollectionRoutingRule,
	CollectionDNSServer,
	CollectionDNSRule,
}

// Node is an upstream proxy server. The engine only reads nodes.
type Node struct {
	Name string `toml:"-"`

	Type          string `toml:"type"`
	V2RayProtocol string `toml:"v2ray_protocol"`
	Label         string `toml:"label" validate:"required"`
	Server        string `toml:"server"`
	ServerPort    string `toml:"server_port" validate:"omitempty,port"`
}

// NodeTag returns the outbound tag of the node with the given section name.
func NodeTag(name string) string {
	return name + outboundSuffix
}

// Tag is the outbound tag routing nodes use to reference this node.
func (n Node) Tag() string {
	return NodeTag(n.Name)
}

// DisplayName renders "[type] label", falling back to server:port.
func (n Node) DisplayName() string {
	kind := n.Type
	if kind == "v2ray" {
		kind = kind + "/" + n.V2RayProtocol
	}
	title := n.Label
	if title == "" {
		title = n.Server + ":" + n.ServerPort
	}
	return fmt.Sprintf("[%s] %s", kind, title)
}

// RoutingNode binds a node to an outbound chain.
type RoutingNode struct {
	Name string `toml:"-"`

	Label          string `toml:"label" validate:"required"`
	Enabled        string `toml:"enabled" validate:"omitempty,uci_flag"`
	Node           string `toml:"node" validate:"required"`
	DomainStrategy string `toml:"domain_strategy" validate:"omitempty,oneof=prefer_ipv4 prefer_ipv6 ipv4_only ipv6_only"`
	BindInterface  string `toml:"bind_interface" validate:"omitempty,ifname"`
	Outbound       string `toml:"outbound"`
}

// Tag is the identity other records use to reference this routing node:
// the outbound tag of its node.
func (r RoutingNode) Tag() string {
	return r.Node
}

func (r RoutingNode) IsEnabled() bool {
	return r.Enabled == FlagOn
}

// RuleMatch holds the match fields shared by routing and DNS rules.
type RuleMatch struct {
	Mode            string   `toml:"mode" validate:"omitempty,oneof=default and or" default:"default"`
	Invert          string   `toml:"invert" validate:"omitempty,uci_flag"`
	Network         string   `toml:"network" validate:"omitempty,oneof=tcp udp"`
	Domain          []string `toml:"domain" validate:"omitempty,dive,domain_name"`
	DomainSuffix    []string `toml:"domain_suffix" validate:"omitempty,dive,required"`
	DomainKeyword   []string `toml:"domain_keyword" validate:"omitempty,dive,required"`
	DomainRegex     []string `toml:"domain_regex" validate:"omitempty,dive,regexp"`
	Geosite         []string `toml:"geosite" validate:"omitempty,dive,required"`
	SourceGeoIP     []string `toml:"source_geoip" validate:"omitempty,dive,required"`
	SourceIPCIDR    []string `toml:"source_ip_cidr" validate:"omitempty,dive,cidr|ip"`
	IPCIDR          []string `toml:"ip_cidr" validate:"omitempty,dive,cidr|ip"`
	SourcePort      []string `toml:"source_port" validate:"omitempty,unique,dive,port"`
	SourcePortRange []string `toml:"source_port_range" validate:"omitempty,dive,port_range"`
	Port            []string `toml:"port" validate:"omitempty,unique,dive,port"`
	PortRange       []string `toml:"port_range" validate:"omitempty,dive,port_range"`
	ProcessName     []string `toml:"process_name" validate:"omitempty,dive,required"`
	User            []string `toml:"user" validate:"omitempty,dive,required"`
}

// RoutingRule dispatches matching traffic to an outbound.
type RoutingRule struct {
	Name string `toml:"-"`

	Label     string   `toml:"label" validate:"required"`
	Enabled   string   `toml:"enabled" validate:"omitempty,uci_flag"`
	IPVersion string   `toml:"ip_version" validate:"omitempty,oneof=4 6"`
	Protocol  []string `toml:"protocol" validate:"omitempty,unique,dive,oneof=http tls quic stun"`
	GeoIP     []string `toml:"geoip" validate:"omitempty,dive,required"`
	RuleMatch
	Outbound string `toml:"outbound" validate:"required"`
}

func (r RoutingRule) IsEnabled() bool {
	return r.Enabled == FlagOn
}

// DNSServer is an upstream resolver.
type DNSServer struct {
	Name string `toml:"-"`

	Label           string `toml:"label" validate:"required"`
	Enabled         string `toml:"enabled" validate:"omitempty,uci_flag"`
	Address         string `toml:"address" validate:"required,dns_address"`
	AddressResolver string `toml:"address_resolver"`
	AddressStrategy string `toml:"address_strategy" validate:"omitempty,oneof=prefer_ipv4 prefer_ipv6 ipv4_only ipv6_only"`
	Outbound        string `toml:"outbound" validate:"required" default:"direct-out"`
}

// DNSServerTag returns the resolver tag of the server with the given
// section name.
func DNSServerTag(name string) string {
	return name + resolverSuffix
}

// Tag is the identity used by address_resolver and DNS rule references.
func (s DNSServer) Tag() string {
	return DNSServerTag(s.Name)
}

func (s DNSServer) IsEnabled() bool {
	return s.Enabled == FlagOn
}

// DNSRule routes matching queries to a DNS server.
type DNSRule struct {
	Name string `toml:"-"`

	Label    string   `toml:"label" validate:"required"`
	Enabled  string   `toml:"enabled" validate:"omitempty,uci_flag"`
	Protocol []string `toml:"protocol" validate:"omitempty,unique,dive,oneof=http tls quic dns stun"`
	RuleMatch
	Outbound        []string `toml:"outbound" validate:"omitempty,unique"`
	Server          string   `toml:"server" validate:"required"`
	DNSDisableCache string   `toml:"dns_disable_cache" validate:"omitempty,uci_flag"`
}

func (r DNSRule) IsEnabled() bool {
	return r.Enabled == FlagOn
}

// MainSettings is the "config" section.
type MainSettings struct {
	MainServer    string `toml:"main_server" validate:"required" default:"nil"`
	MainUDPServer string `toml:"main_udp_server" validate:"required" default:"nil"`
	RoutingMode   string `toml:"routing_mode" validate:"required,oneof=gfwlist bypass_mainland_china proxy_mainland_china custom global" default:"bypass_mainland_china"`
	RoutingPort   string `toml:"routing_port" validate:"required,routing_port" default:"common"`
	DNSServer     string `toml:"dns_server" validate:"required,ip_or_sentinel" default:"8.8.8.8"`
}

// RoutingSettings is the "routing" section.
type RoutingSettings struct {
	SniffOverride    string `toml:"sniff_override" validate:"omitempty,uci_flag"`
	DefaultOutbound  string `toml:"default_outbound" validate:"required" default:"nil"`
	DefaultInterface string `toml:"default_interface" validate:"omitempty,ifname"`
}

// DNSSettings is the "dns" section.
type DNSSettings struct {
	DNSStrategy        string `toml:"dns_strategy" validate:"required,oneof=prefer_ipv4 prefer_ipv6 ipv4_only ipv6_only" default:"prefer_ipv4"`
	DefaultServer      string `toml:"default_server" validate:"required" default:"local-dns"`
	DisableCache       string `toml:"disable_cache" validate:"omitempty,uci_flag"`
	DisableCacheExpire string `toml:"disable_cache_expire" validate:"omitempty,uci_flag"`
}

// Config is a typed snapshot of the whole store. Records keep store order.
type Config struct {
	Nodes        []Node
	RoutingNodes []RoutingNode
	RoutingRules []RoutingRule
	DNSServers   []DNSServer
	DNSRules     []DNSRule

	Main    MainSettings
	Routing RoutingSettings
	DNS     DNSSettings
}

// FindNode returns the node with the given section name.
func (c *Config) FindNode(name string) (Node, bool) {
	for _, n := range c.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// FindNodeByTag returns the node whose outbound tag is tag.
func (c *Config) FindNodeByTag(tag string) (Node, bool) {
	for _, n := range c.Nodes {
		if n.Tag() == tag {
			return n, true
		}
	}
	return Node{}, false
}

// RoutingNodesByTag returns every routing node carrying tag, in store order.
func (c *Config) RoutingNodesByTag(tag string) []RoutingNode {
	var out []RoutingNode
	for _, r := range c.RoutingNodes {
		if r.Tag() == tag {
			out = append(out, r)
		}
	}
	return out
}

// FindDNSServerByTag returns the DNS server whose resolver tag is tag.
func (c *Config) FindDNSServerByTag(tag string) (DNSServer, bool) {
	for _, s := range c.DNSServers {
		if s.Tag() == tag {
			return s, true
		}
	}
	return DNSServer{}, false
}
