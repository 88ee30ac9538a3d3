package config

import (
	"strings"
	"testing"

	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func newTestStore() *store.MemoryStore {
	s := store.NewMemoryStore()
	s.AddRecord(CollectionNode, store.Record{Name: "hk", Fields: map[string][]string{
		"type": {"v2ray"}, "v2ray_protocol": {"vmess"}, "label": {"Edge"}, "server": {"1.2.3.4"}, "server_port": {"443"},
	}})
	s.AddRecord(CollectionRoutingNode, store.Record{Name: "rn1", Fields: map[string][]string{
		"label": {"HK"}, "enabled": {"1"}, "node": {"hk-out"},
	}})
	s.AddRecord(CollectionRoutingRule, store.Record{Name: "rule1", Fields: map[string][]string{
		"label": {"Streaming"}, "port": {"80", "443"}, "outbound": {"hk-out"},
	}})
	s.AddRecord(CollectionDNSServer, store.Record{Name: "google", Fields: map[string][]string{
		"label": {"Google"}, "enabled": {"1"}, "address": {"tls://dns.google"}, "address_resolver": {"local-dns"},
	}})
	s.AddRecord(CollectionSettings, store.Record{Name: SectionMain, Fields: map[string][]string{
		"routing_mode": {"custom"},
	}})
	return s
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(newTestStore())
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(cfg.Nodes) != 1 || cfg.Nodes[0].Tag() != "hk-out" {
		t.Errorf("nodes = %+v", cfg.Nodes)
	}
	if got := cfg.Nodes[0].DisplayName(); got != "[v2ray/vmess] Edge" {
		t.Errorf("DisplayName() = %q", got)
	}

	rn := cfg.RoutingNodes[0]
	if rn.Name != "rn1" || !rn.IsEnabled() || rn.Tag() != "hk-out" || rn.Outbound != "" {
		t.Errorf("routing node = %+v", rn)
	}

	rule := cfg.RoutingRules[0]
	if rule.Mode != "default" {
		t.Errorf("rule mode = %q, want declared default", rule.Mode)
	}
	if rule.IsEnabled() {
		t.Error("rule without enabled flag must be disabled")
	}
	if strings.Join(rule.Port, ",") != "80,443" {
		t.Errorf("rule ports = %v", rule.Port)
	}

	srv := cfg.DNSServers[0]
	if srv.Tag() != "google-dns" || srv.Outbound != "direct-out" {
		t.Errorf("dns server = %+v", srv)
	}

	if cfg.Main.RoutingMode != "custom" || cfg.Main.RoutingPort != "common" || cfg.Main.MainServer != "nil" {
		t.Errorf("main settings = %+v", cfg.Main)
	}
	if cfg.DNS.DefaultServer != "local-dns" || cfg.DNS.DNSStrategy != "prefer_ipv4" {
		t.Errorf("dns settings = %+v", cfg.DNS)
	}
	if cfg.Routing.DefaultOutbound != "nil" {
		t.Errorf("routing settings = %+v", cfg.Routing)
	}
}

func TestDecodeRecord(t *testing.T) {
	v, err := DecodeRecord(CollectionSettings, store.Record{Name: SectionDNS, Fields: map[string][]string{
		"disable_cache": {"1"},
	}})
	if err != nil {
		t.Fatalf("DecodeRecord() failed: %v", err)
	}
	dns, ok := v.(DNSSettings)
	if !ok {
		t.Fatalf("DecodeRecord() returned %T", v)
	}
	if dns.DisableCache != "1" || dns.DefaultServer != "local-dns" {
		t.Errorf("dns settings = %+v", dns)
	}

	if _, err := DecodeRecord(CollectionSettings, store.Record{Name: "unknown"}); err == nil {
		t.Error("expected error for unknown settings section")
	}
}

func TestConfigLookups(t *testing.T) {
	cfg, err := Decode(newTestStore())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := cfg.FindNode("hk"); !ok {
		t.Error("FindNode(hk) not found")
	}
	if _, ok := cfg.FindNodeByTag("hk-out"); !ok {
		t.Error("FindNodeByTag(hk-out) not found")
	}
	if got := cfg.RoutingNodesByTag("hk-out"); len(got) != 1 {
		t.Errorf("RoutingNodesByTag(hk-out) = %v", got)
	}
	if _, ok := cfg.FindDNSServerByTag("google-dns"); !ok {
		t.Error("FindDNSServerByTag(google-dns) not found")
	}
	if _, ok := cfg.FindDNSServerByTag("google"); ok {
		t.Error("section name is not a resolver tag")
	}
}

func TestNodeDisplayName(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{Type: "socks", Label: "Home"}, "[socks] Home"},
		{Node{Type: "http", Server: "proxy.lan", ServerPort: "3128"}, "[http] proxy.lan:3128"},
		{Node{Type: "v2ray", V2RayProtocol: "vless", Label: "Edge"}, "[v2ray/vless] Edge"},
	}
	for _, tt := range tests {
		if got := tt.node.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalizeFlag(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1", "1", true},
		{"true", "1", true},
		{"On", "1", true},
		{"0", "0", true},
		{"false", "0", true},
		{"off", "0", true},
		{"maybe", "maybe", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeFlag(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeFlag(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
