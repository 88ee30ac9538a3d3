package codec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maksimkurb/proxycfg/src/internal/errors"
)

const (
	// MaxPort is the highest valid TCP/UDP port.
	MaxPort = 65535

	// RoutingPortAll and RoutingPortCommon bypass the port list parser.
	RoutingPortAll    = "all"
	RoutingPortCommon = "common"
)

var portRangeRegexp = regexp.MustCompile(`^(\d+)?:(\d+)?$`)

// Port is a TCP/UDP port in [1, 65535].
type Port uint16

func (p Port) String() string {
	return strconv.Itoa(int(p))
}

// ParsePort parses a decimal port. The token must format back to itself, so
// signs, leading zeros and surrounding whitespace are rejected.
func ParsePort(s string) (Port, error) {
	n, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(n) != s || n < 1 || n > MaxPort {
		return 0, errors.Invalid(errors.ErrCodeInvalidPort, "", s)
	}
	return Port(n), nil
}

// PortRange is an inclusive START:END range. Start may be 0 when the lower
// bound was omitted.
type PortRange struct {
	Start uint16
	End   uint16
}

// String renders the range with both bounds present.
func (r PortRange) String() string {
	return strconv.Itoa(int(r.Start)) + ":" + strconv.Itoa(int(r.End))
}

// ParsePortRange parses START:END where either side may be omitted (but not
// both). An empty START means 0 and an empty END means 65535. The range is
// valid only when start < end <= 65535.
func ParsePortRange(s string) (PortRange, error) {
	invalid := errors.Invalid(errors.ErrCodeInvalidPortRange, "", s)

	m := portRangeRegexp.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return PortRange{}, invalid
	}

	start, end := 0, MaxPort
	var err error
	if m[1] != "" {
		if start, err = strconv.Atoi(m[1]); err != nil {
			return PortRange{}, invalid
		}
	}
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return PortRange{}, invalid
		}
	}

	if start >= end || end > MaxPort {
		return PortRange{}, invalid
	}

	return PortRange{Start: uint16(start), End: uint16(end)}, nil
}

// PortList is an ordered set of ports.
type PortList []Port

// Contains reports whether p is in the list.
func (l PortList) Contains(p Port) bool {
	for _, port := range l {
		if port == p {
			return true
		}
	}
	return false
}

func (l PortList) String() string {
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// ParsePortList parses a comma separated list of ports. Every token must be a
// valid port and appear only once.
func ParsePortList(s string) (PortList, error) {
	if s == "" {
		return nil, errors.Invalid(errors.ErrCodeInvalidPort, "", s)
	}

	tokens := strings.Split(s, ",")
	list := make(PortList, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		port, err := ParsePort(token)
		if err != nil {
			return nil, err
		}
		if seen[token] {
			return nil, errors.Invalid(errors.ErrCodeDuplicatePort, "", token)
		}
		seen[token] = true
		list = append(list, port)
	}

	return list, nil
}

// RoutingPort is the top-level routing_port value: either a keyword or an
// explicit port list.
type RoutingPort struct {
	Keyword string
	Ports   PortList
}

func (r RoutingPort) String() string {
	if r.Keyword != "" {
		return r.Keyword
	}
	return r.Ports.String()
}

// ParseRoutingPort accepts "all", "common" or a port list.
func ParseRoutingPort(s string) (RoutingPort, error) {
	if s == RoutingPortAll || s == RoutingPortCommon {
		return RoutingPort{Keyword: s}, nil
	}
	ports, err := ParsePortList(s)
	if err != nil {
		return RoutingPort{}, err
	}
	return RoutingPort{Ports: ports}, nil
}
