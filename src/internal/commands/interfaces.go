package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/networking"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func CreateInterfacesCommand() *InterfacesCommand {
	gc := &InterfacesCommand{
		fs: flag.NewFlagSet("interfaces", flag.ExitOnError),
	}
	gc.fs.BoolVar(&gc.all, "all", false, "Include loopback interfaces")
	return gc
}

// InterfacesCommand lists the interfaces offered for bind_interface and
// default_interface, and the state of those the store binds to.
type InterfacesCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore
	all   bool
}

func (g *InterfacesCommand) Name() string {
	return g.fs.Name()
}

func (g *InterfacesCommand) Init(args []string, ctx *AppContext) error {
	g.ctx = ctx

	if err := g.fs.Parse(args); err != nil {
		return err
	}

	st, err := openStoreOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	g.store = st
	return nil
}

func (g *InterfacesCommand) Run() error {
	names, err := networking.LinkLister{IncludeLoopback: g.all}.InterfaceNames()
	if err != nil {
		return fmt.Errorf("failed to get interfaces: %v", err)
	}

	out := g.ctx.out()
	fmt.Fprintf(out, "Available: %s\n", strings.Join(names, " "))

	cfg, err := config.Decode(g.store)
	if err != nil {
		return err
	}
	statuses := networking.Inspect(networking.Bindings(cfg))
	if len(statuses) == 0 {
		return nil
	}

	fmt.Fprintln(out, "Bound:")
	for _, s := range statuses {
		state := "missing"
		switch {
		case s.Exists && s.Up:
			state = "up"
		case s.Exists:
			state = "down"
		}
		fmt.Fprintf(out, "  %s (%s %s) %s %s\n", s.Interface, s.Owner, s.Field, state, strings.Join(s.Addrs, " "))
	}
	return nil
}
