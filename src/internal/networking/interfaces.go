package networking

import (
	"net"
	"sort"

	"github.com/vishvananda/netlink"
)

type Interface struct {
	netlink.Link
}

func GetInterface(interfaceName string) (*Interface, error) {
	link, err := netlink.LinkByName(interfaceName)
	if err != nil {
		return nil, err
	}
	return &Interface{link}, nil
}

func GetInterfaceList() ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	var interfaces []Interface
	for _, link := range links {
		interfaces = append(interfaces, Interface{link})
	}
	return interfaces, nil
}

func (iface *Interface) IsUp() bool {
	return iface.Attrs().Flags&net.FlagUp != 0
}

func (iface *Interface) IsLoopback() bool {
	return iface.Attrs().Flags&net.FlagLoopback != 0
}

func (iface *Interface) AddrsIps() ([]net.IP, error) {
	addrs, err := netlink.AddrList(iface.Link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, addr := range addrs {
		ips = append(ips, addr.IP)
	}
	return ips, nil
}

// LinkLister lists system interfaces through netlink. It backs the
// bind_interface and default_interface candidate lists.
type LinkLister struct {
	// IncludeLoopback keeps "lo" and friends in the list.
	IncludeLoopback bool
}

// InterfaceNames returns the interface names, sorted.
func (l LinkLister) InterfaceNames() ([]string, error) {
	interfaces, err := GetInterfaceList()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(interfaces))
	for i := range interfaces {
		if !l.IncludeLoopback && interfaces[i].IsLoopback() {
			continue
		}
		names = append(names, interfaces[i].Attrs().Name)
	}
	sort.Strings(names)
	return names, nil
}
