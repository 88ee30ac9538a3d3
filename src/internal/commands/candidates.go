package commands

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/maksimkurb/proxycfg/src/internal/store"
)

func CreateCandidatesCommand() *CandidatesCommand {
	c := &CandidatesCommand{
		fs: flag.NewFlagSet("candidates", flag.ExitOnError),
	}
	c.fs.StringVar(&c.collection, "collection", "", "Collection of the record (e.g. routing_rule)")
	c.fs.StringVar(&c.id, "id", "", "Section name of the record; empty for a new record")
	c.fs.StringVar(&c.field, "field", "", "Field to list candidates for")
	return c
}

// CandidatesCommand prints the values a field may take.
type CandidatesCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore

	collection string
	id         string
	field      string
}

func (c *CandidatesCommand) Name() string {
	return c.fs.Name()
}

func (c *CandidatesCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(c.fs, "collection", "field"); err != nil {
		return err
	}

	st, err := openStoreOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.store = st
	return nil
}

func (c *CandidatesCommand) Run() error {
	candidates, err := newEngine().Candidates(c.store, c.collection, c.id, c.field)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.ctx.out(), 0, 4, 2, ' ', 0)
	for _, cand := range candidates {
		value := cand.Value
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(w, "%s\t%s\n", value, cand.Label)
	}
	return w.Flush()
}
