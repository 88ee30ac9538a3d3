package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func CreateDeleteCommand() *DeleteCommand {
	c := &DeleteCommand{
		fs: flag.NewFlagSet("delete", flag.ExitOnError),
	}
	c.fs.StringVar(&c.collection, "collection", "", "Collection of the record")
	c.fs.StringVar(&c.id, "id", "", "Section name of the record")
	c.fs.BoolVar(&c.commit, "commit", false, "Delete the record after reporting dependents")
	return c
}

// DeleteCommand reports the references a deletion would leave dangling and
// optionally deletes the record.
type DeleteCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore

	collection string
	id         string
	commit     bool
}

func (c *DeleteCommand) Name() string {
	return c.fs.Name()
}

func (c *DeleteCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(c.fs, "collection", "id"); err != nil {
		return err
	}

	st, err := openStoreOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.store = st
	return nil
}

func (c *DeleteCommand) Run() error {
	report, err := newEngine().ValidateDelete(c.store, c.collection, c.id)
	if err != nil {
		return err
	}

	out := c.ctx.out()
	if len(report.Dependents) == 0 {
		fmt.Fprintf(out, "%s.%s has no dependents\n", c.collection, c.id)
	}
	for _, ref := range report.Dependents {
		fmt.Fprintf(out, "  %s.%s.%s = %s\n", ref.Collection, ref.ID, ref.Field, ref.Value)
	}

	if !c.commit {
		return nil
	}
	if err := c.store.DeleteRecord(c.collection, c.id); err != nil {
		return err
	}
	log.Infof("Deleted %s.%s", c.collection, c.id)
	fmt.Fprintf(out, "deleted %s\n", c.id)
	return nil
}
