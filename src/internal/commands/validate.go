package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func CreateValidateCommand() *ValidateCommand {
	c := &ValidateCommand{
		fs:      flag.NewFlagSet("validate", flag.ExitOnError),
		pending: fieldValues{},
	}
	c.fs.StringVar(&c.collection, "collection", "", "Collection of the edited record (e.g. routing_node)")
	c.fs.StringVar(&c.id, "id", "", "Section name of the edited record; empty for a new record")
	c.fs.StringVar(&c.field, "field", "", "Edited field")
	c.fs.Var(c.pending, "set", "Sibling value as field=value, validated and committed with the field (repeatable)")
	c.fs.BoolVar(&c.commit, "commit", false, "Write the value and its siblings when accepted")
	return c
}

// ValidateCommand validates one field edit. The proposed values are the
// positional arguments; none clears the field.
type ValidateCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore

	collection string
	id         string
	field      string
	pending    fieldValues
	commit     bool
	values     []string
}

func (c *ValidateCommand) Name() string {
	return c.fs.Name()
}

func (c *ValidateCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(c.fs, "collection", "field"); err != nil {
		return err
	}
	c.values = c.fs.Args()

	st, err := openStoreOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.store = st
	return nil
}

func (c *ValidateCommand) Run() error {
	edit := engine.Edit{
		Collection: c.collection,
		ID:         c.id,
		Field:      c.field,
		Values:     c.values,
		Pending:    c.pending,
	}

	verdict, fields := newEngine().ValidateCommit(c.store, edit)
	if !verdict.OK {
		fmt.Fprintf(c.ctx.out(), "REJECTED %s: %s\n", verdict.Err.Code, verdict.Err.Message)
		return fmt.Errorf("%s.%s rejected", c.collection, c.field)
	}

	fmt.Fprintf(c.ctx.out(), "OK %s\n", strings.Join(verdict.Normalized, " "))
	for _, ref := range verdict.Dependents {
		fmt.Fprintf(c.ctx.out(), "  leaves %s.%s.%s = %s dangling\n", ref.Collection, ref.ID, ref.Field, ref.Value)
	}
	if !c.commit {
		return nil
	}

	id := c.id
	if id == "" {
		name, err := store.GenerateName(c.store, c.collection)
		if err != nil {
			return err
		}
		id = name
	}
	if err := c.store.SetFields(c.collection, id, fields); err != nil {
		return err
	}
	log.Infof("Committed %s.%s", c.collection, id)
	fmt.Fprintf(c.ctx.out(), "committed %s\n", id)
	return nil
}
