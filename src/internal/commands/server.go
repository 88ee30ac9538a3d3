package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maksimkurb/proxycfg/src/internal/api"
	"github.com/maksimkurb/proxycfg/src/internal/config"
	"github.com/maksimkurb/proxycfg/src/internal/engine"
	"github.com/maksimkurb/proxycfg/src/internal/log"
	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// ServeCommand runs the REST API over the store file and reloads the store
// when the file changes on disk.
type ServeCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	store *store.FileStore

	bindAddr string
	watch    bool
}

func CreateServeCommand() *ServeCommand {
	c := &ServeCommand{
		fs: flag.NewFlagSet("serve", flag.ExitOnError),
	}
	c.fs.StringVar(&c.bindAddr, "bind", "127.0.0.1:8090", "Address to bind the HTTP server (e.g., 0.0.0.0:8090)")
	c.fs.BoolVar(&c.watch, "watch", true, "Reload the store when the file changes")
	return c
}

func (c *ServeCommand) Name() string {
	return c.fs.Name()
}

func (c *ServeCommand) Init(args []string, ctx *AppContext) error {
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

func (c *ServeCommand) Run() error {
	eng := newEngine()
	metrics := api.NewMetrics()
	handler := api.NewHandler(c.store, eng, metrics)

	log.Infof("Configuration loaded from: %s", c.store.Path())
	log.Infof("Access restricted to private subnets only:")
	log.Infof("  IPv4: 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16, 127.0.0.0/8")
	log.Infof("  IPv6: fc00::/7, fe80::/10, ::1/128")
	auditStore(eng, c.store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *RestartableRunner
	if c.watch {
		watcher = NewRestartableRunner(RunnerConfig{Name: "store watcher"}, func(ctx context.Context) error {
			w, err := store.NewWatcher(c.store)
			if err != nil {
				return err
			}
			w.OnChange(func() {
				metrics.RecordReload()
				auditStore(eng, c.store)
			})
			return w.Start(ctx)
		})
		watcher.Start(ctx)
	}

	server := api.NewServer(c.bindAddr, handler)
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		log.Infof("Received signal %v, shutting down server...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	cancel()
	if watcher != nil {
		<-watcher.Done()
	}
	if runErr == nil {
		log.Infof("Server stopped gracefully")
	}
	return runErr
}

// auditStore logs the problems of the committed store. Problems do not stop
// the server: the API is how they get fixed.
func auditStore(eng *engine.Engine, st store.Reader) {
	err := eng.Check(st)
	if err == nil {
		log.Infof("Configuration is valid")
		return
	}
	var ve config.ValidationErrors
	if errors.As(err, &ve) {
		log.Warnf("Configuration has %d problem(s):\n%s", len(ve), ve.Error())
		return
	}
	log.Errorf("Configuration audit failed: %v", err)
}
