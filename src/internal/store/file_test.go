package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
)

const sampleTOML = `
[homeproxy.routing]
  default_outbound = "direct-out"
  sniff_override = true

[homeproxy.config]
  main_server = "nil"
  routing_mode = "custom"

[[node]]
  name = "hk"
  type = "socks"
  server = "10.0.0.1"
  server_port = 1080

[[routing_node]]
  name = "rn_b"
  label = "B"
  enabled = "1"
  node = "hk-out"

[[routing_node]]
  name = "rn_a"
  label = "A"
  enabled = "0"
  node = "hk-out"

[[routing_rule]]
  name = "rule1"
  label = "Rule"
  port = ["80", "443"]
  outbound = "hk-out"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestOpenFileStore_TOML(t *testing.T) {
	fs, err := OpenFileStore(writeFile(t, "homeproxy.toml", sampleTOML))
	require.NoError(t, err)

	settings, err := fs.ListRecords(SettingsCollection)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "config", settings[0].Name, "well-known sections come first")
	assert.Equal(t, "routing", settings[1].Name)

	v, _ := settings[1].Get("sniff_override")
	assert.Equal(t, "1", v, "booleans become flags")

	nodes, _ := fs.ListRecords("node")
	port, _ := nodes[0].Get("server_port")
	assert.Equal(t, "1080", port)

	routingNodes, _ := fs.ListRecords("routing_node")
	require.Len(t, routingNodes, 2)
	assert.Equal(t, "rn_b", routingNodes[0].Name, "list order is store order")
	assert.Equal(t, "rn_a", routingNodes[1].Name)

	ports, ok, err := fs.GetField("routing_rule", "rule1", "port")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"80", "443"}, ports)
}

func TestFileStore_WritePersists(t *testing.T) {
	path := writeFile(t, "homeproxy.toml", sampleTOML)
	fs, err := OpenFileStore(path)
	require.NoError(t, err)

	require.NoError(t, fs.SetField("routing_node", "rn_a", "enabled", []string{"1"}))
	require.NoError(t, fs.SetField("homeproxy", "dns", "default_server", []string{"local-dns"}))
	require.NoError(t, fs.DeleteRecord("routing_rule", "rule1"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	enabled, _, _ := reopened.GetField("routing_node", "rn_a", "enabled")
	assert.Equal(t, []string{"1"}, enabled)

	server, ok, _ := reopened.GetField("homeproxy", "dns", "default_server")
	assert.True(t, ok, "settings sections stay a table")
	assert.Equal(t, []string{"local-dns"}, server)

	rules, _ := reopened.ListRecords("routing_rule")
	assert.Empty(t, rules)

	routingNodes, _ := reopened.ListRecords("routing_node")
	require.Len(t, routingNodes, 2)
	assert.Equal(t, "rn_b", routingNodes[0].Name)
}

func TestFileStore_SetFieldsPersists(t *testing.T) {
	path := writeFile(t, "homeproxy.toml", sampleTOML)
	fs, err := OpenFileStore(path)
	require.NoError(t, err)

	require.NoError(t, fs.SetFields("routing_node", "cfg000009", map[string][]string{
		"label":   {"Relay"},
		"enabled": {"1"},
	}))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	label, ok, _ := reopened.GetField("routing_node", "cfg000009", "label")
	assert.True(t, ok)
	assert.Equal(t, []string{"Relay"}, label)
	enabled, _, _ := reopened.GetField("routing_node", "cfg000009", "enabled")
	assert.Equal(t, []string{"1"}, enabled)
}

func TestFileStore_YAML(t *testing.T) {
	content := `
homeproxy:
  dns:
    dns_strategy: prefer_ipv4
dns_server:
  - name: srv1
    label: Google
    address: dns.google
    enabled: true
`
	path := writeFile(t, "homeproxy.yaml", content)
	fs, err := OpenFileStore(path)
	require.NoError(t, err)

	enabled, _, _ := fs.GetField("dns_server", "srv1", "enabled")
	assert.Equal(t, []string{"1"}, enabled)

	require.NoError(t, fs.SetField("dns_server", "srv1", "address_resolver", []string{"local-dns"}))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	resolver, _, _ := reopened.GetField("dns_server", "srv1", "address_resolver")
	assert.Equal(t, []string{"local-dns"}, resolver)
	strategy, _, _ := reopened.GetField("homeproxy", "dns", "dns_strategy")
	assert.Equal(t, []string{"prefer_ipv4"}, strategy)
}

func TestOpenFileStore_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "homeproxy.toml")

	fs, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, fs.Collections())

	require.NoError(t, fs.SetField("node", "n1", "type", []string{"http"}))
	_, err = os.Stat(path)
	assert.NoError(t, err, "first write creates the file")
}

func TestOpenFileStore_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[[routing_node]\nname = "},
		{"no name", "[[routing_node]]\nlabel = \"x\"\n"},
		{"duplicate name", "[[node]]\nname = \"a\"\n[[node]]\nname = \"a\"\n"},
		{"scalar collection", "node = \"x\"\n"},
		{"nested table value", "[[node]]\nname = \"a\"\n[node.extra]\nk = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenFileStore(writeFile(t, "bad.toml", tt.content))
			require.Error(t, err)
			assert.Equal(t, pcerrors.ErrCodeStore, pcerrors.Code(err))
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("/etc/proxycfg/homeproxy.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("a.YAML"))
	assert.Equal(t, FormatTOML, FormatFromPath("a.toml"))
	assert.Equal(t, FormatTOML, FormatFromPath("homeproxy"))
}
