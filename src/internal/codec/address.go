package codec

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/miekg/dns"

	"github.com/maksimkurb/proxycfg/src/internal/errors"
)

// AddressKind distinguishes IP addresses from the resolver sentinels.
type AddressKind uint8

const (
	AddressIPv4 AddressKind = iota + 1
	AddressIPv6
	AddressLocal
	AddressWAN
)

const (
	addressLocal = "local"
	addressWAN   = "wan"
)

// Address is a plain IP address or one of the "local"/"wan" sentinels.
type Address struct {
	Kind AddressKind
	IP   netip.Addr
}

func (a Address) String() string {
	switch a.Kind {
	case AddressLocal:
		return addressLocal
	case AddressWAN:
		return addressWAN
	default:
		return a.IP.String()
	}
}

// ParseAddress accepts an IPv4 or IPv6 address (without zone) or one of the
// sentinels "local" (follow system) and "wan" (use the WAN DNS server).
func ParseAddress(s string) (Address, error) {
	switch s {
	case addressLocal:
		return Address{Kind: AddressLocal}, nil
	case addressWAN:
		return Address{Kind: AddressWAN}, nil
	}

	ip, err := netip.ParseAddr(s)
	if err != nil || ip.Zone() != "" {
		return Address{}, errors.Invalid(errors.ErrCodeInvalidAddress, "", s)
	}
	if ip.Is4() {
		return Address{Kind: AddressIPv4, IP: ip}, nil
	}
	return Address{Kind: AddressIPv6, IP: ip}, nil
}

// IsHostname reports whether s is shaped like a DNS host name.
func IsHostname(s string) bool {
	if s == "" || len(s) > 253 || strings.ContainsAny(s, " \t\r\n/\\:@*") {
		return false
	}
	if _, ok := dns.IsDomainName(s); !ok {
		return false
	}
	labels := strings.Split(strings.TrimSuffix(s, "."), ".")
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	// A numeric top-level label is a malformed IPv4 address, not a name.
	return strings.Trim(labels[len(labels)-1], "0123456789") != ""
}

// Upstream schemes accepted in a DNS server address.
var serverSchemes = map[string]bool{
	"udp":   true,
	"tcp":   true,
	"tls":   true,
	"https": true,
	"quic":  true,
	"h3":    true,
	"rcode": true,
	"dhcp":  true,
}

var rcodes = map[string]bool{
	"success":         true,
	"format_error":    true,
	"server_failure":  true,
	"name_error":      true,
	"not_implemented": true,
	"refused":         true,
}

// ServerAddress is a parsed DNS server address such as "8.8.8.8",
// "tls://dns.google" or "https://1.1.1.1/dns-query".
type ServerAddress struct {
	Scheme string
	Host   string
	Port   Port
	Path   string
}

// NeedsResolver reports whether the host is a domain name that has to be
// resolved through another server before this one can be reached.
func (a ServerAddress) NeedsResolver() bool {
	switch a.Scheme {
	case "local", "rcode", "dhcp":
		return false
	}
	_, err := netip.ParseAddr(a.Host)
	return err != nil
}

// ParseServerAddress validates the address of a DNS server. Supported forms
// are "local", a plain IP or host name, and scheme://host[:port][/path] for
// UDP, TCP, DoT, DoH, DoQ, HTTP/3, RCode and DHCP upstreams.
func ParseServerAddress(s string) (ServerAddress, error) {
	invalid := errors.Invalidf(errors.ErrCodeInvalidAddress, "", s, "Expecting: valid DNS server address")

	if s == addressLocal {
		return ServerAddress{Scheme: "local"}, nil
	}

	if !strings.Contains(s, "://") {
		if ip, err := netip.ParseAddr(s); err == nil && ip.Zone() == "" {
			return ServerAddress{Scheme: "udp", Host: s}, nil
		}
		if IsHostname(s) {
			return ServerAddress{Scheme: "udp", Host: s}, nil
		}
		return ServerAddress{}, invalid
	}

	u, err := url.Parse(s)
	if err != nil || !serverSchemes[u.Scheme] || u.User != nil {
		return ServerAddress{}, invalid
	}

	addr := ServerAddress{Scheme: u.Scheme, Host: u.Hostname(), Path: u.Path}
	switch u.Scheme {
	case "rcode":
		if !rcodes[u.Host] {
			return ServerAddress{}, invalid
		}
		return addr, nil
	case "dhcp":
		// dhcp://auto or dhcp://<interface>
		if u.Host == "" {
			return ServerAddress{}, invalid
		}
		return addr, nil
	}

	if addr.Host == "" {
		return ServerAddress{}, invalid
	}
	if ip, err := netip.ParseAddr(addr.Host); err != nil {
		if !IsHostname(addr.Host) {
			return ServerAddress{}, invalid
		}
	} else if ip.Zone() != "" {
		return ServerAddress{}, invalid
	}
	if p := u.Port(); p != "" {
		if addr.Port, err = ParsePort(p); err != nil {
			return ServerAddress{}, invalid
		}
	}
	if addr.Path != "" && u.Scheme != "https" && u.Scheme != "h3" {
		return ServerAddress{}, invalid
	}

	return addr, nil
}
