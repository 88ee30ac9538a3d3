// Package networking reads system network interfaces through netlink.
//
// LinkLister supplies the interface names offered for the bind_interface and
// default_interface fields. Bindings and Inspect report whether the
// interfaces a configuration binds to exist and are up.
package networking
