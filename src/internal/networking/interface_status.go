package networking

import (
	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/log"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Binding is an interface a configuration record is bound to.
type Binding struct {
	Interface string `json:"interface"`
	Owner     string `json:"owner"` // routing node label or "routing"
	Field     string `json:"field"`
}

// InterfaceStatus is the system state of a bound interface.
type InterfaceStatus struct {
	Binding
	Index  int      `json:"index"`
	Exists bool     `json:"exists"`
	Up     bool     `json:"up"`
	Addrs  []string `json:"addrs,omitempty"`
}

// Bindings lists the interfaces the configuration binds traffic to, in
// store order: enabled routing nodes first, then the routing default.
func Bindings(cfg *config.Config) []Binding {
	var out []Binding
	for _, rn := range cfg.RoutingNodes {
		if rn.BindInterface == "" || !rn.IsEnabled() {
			continue
		}
		out = append(out, Binding{Interface: rn.BindInterface, Owner: rn.Label, Field: "bind_interface"})
	}
	if cfg.Routing.DefaultInterface != "" {
		out = append(out, Binding{
			Interface: cfg.Routing.DefaultInterface,
			Owner:     config.SectionRouting,
			Field:     "default_interface",
		})
	}
	return out
}

// Inspect looks up every binding through netlink. A missing interface is
// reported, not returned as an error: routing nodes may reference tunnels
// that come up later.
func Inspect(bindings []Binding) []InterfaceStatus {
	out := make([]InterfaceStatus, 0, len(bindings))
	for _, b := range bindings {
		status := InterfaceStatus{Binding: b}

		iface, err := GetInterface(b.Interface)
		if err != nil {
			log.Debugf("Interface \"%s\" of %s is not available: %v", b.Interface, b.Owner, err)
			out = append(out, status)
			continue
		}

		status.Exists = true
		status.Index = iface.Attrs().Index
		status.Up = iface.IsUp()
		if ips, err := iface.AddrsIps(); err == nil {
			for _, ip := range ips {
				status.Addrs = append(status.Addrs, ip.String())
			}
		} else {
			log.Warnf("Failed to list addresses of \"%s\": %v", b.Interface, err)
		}

		logInterfaceStatus(status)
		out = append(out, status)
	}
	return out
}

func logInterfaceStatus(s InterfaceStatus) {
	state := colorRed + "down" + colorReset
	if s.Up {
		state = colorGreen + "up" + colorReset
	}
	log.Debugf("  %s (idx=%d) %s=%s state=%s", s.Interface, s.Index, s.Owner, s.Field, state)
}
