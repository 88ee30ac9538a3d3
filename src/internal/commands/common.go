package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/networking"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (ctx *AppContext) out() io.Writer {
	if ctx.Out == nil {
		return os.Stdout
	}
	return ctx.Out
}

// openStoreOrFail opens the store file named by the global -config flag.
func openStoreOrFail(configPath string) (*store.FileStore, error) {
	fs, err := store.OpenFileStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration store: %w", err)
	}
	return fs, nil
}

// newEngine returns an engine offering the system interfaces as candidates.
func newEngine() *engine.Engine {
	return engine.New(engine.WithInterfaces(networking.LinkLister{}))
}

// requireFlags fails when any of the named string flags is empty.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	var missing []string
	for _, name := range names {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flag(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// fieldValues collects repeated -set field=value flags into pending sibling
// values. Repeating a field appends to its list.
type fieldValues map[string][]string

func (f fieldValues) String() string {
	var parts []string
	for k, v := range f {
		parts = append(parts, k+"="+strings.Join(v, ","))
	}
	return strings.Join(parts, " ")
}

func (f fieldValues) Set(s string) error {
	field, value, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return fmt.Errorf("expected field=value, got %q", s)
	}
	f[field] = append(f[field], value)
	return nil
}
