package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func CreateCheckCommand() *CheckCommand {
	return &CheckCommand{
		fs: flag.NewFlagSet("check", flag.ExitOnError),
	}
}

// CheckCommand audits the whole store.
type CheckCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore
}

func (c *CheckCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	st, err := openStoreOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.store = st
	return nil
}

func (c *CheckCommand) Run() error {
	if err := newEngine().Check(c.store); err != nil {
		fmt.Fprint(c.ctx.out(), err.Error())
		return fmt.Errorf("configuration check failed")
	}

	log.Infof("Configuration %s is valid", c.store.Path())
	fmt.Fprintln(c.ctx.out(), "OK")
	return nil
}
