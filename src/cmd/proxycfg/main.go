package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maksimkurb/proxycfg/src/internal/commands"
	"github.com/maksimkurb/proxycfg/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	ctx := &commands.AppContext{}

	flag.StringVar(&ctx.ConfigPath, "config", "/etc/proxycfg/homeproxy.toml", "Path to the configuration store (.toml or .yaml)")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Homeproxy configuration validator\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  check                   Audit the whole configuration store\n")
		fmt.Fprintf(os.Stderr, "  validate                Validate one field edit (-commit to write it)\n")
		fmt.Fprintf(os.Stderr, "  candidates              List the values a field may take\n")
		fmt.Fprintf(os.Stderr, "  delete                  Report dependents of a record (-commit to delete it)\n")
		fmt.Fprintf(os.Stderr, "  interfaces              List interfaces offered for interface fields\n")
		fmt.Fprintf(os.Stderr, "  serve                   Run the REST API\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	cmds := []commands.Runner{
		commands.CreateCheckCommand(),
		commands.CreateValidateCommand(),
		commands.CreateCandidatesCommand(),
		commands.CreateDeleteCommand(),
		commands.CreateInterfacesCommand(),
		commands.CreateServeCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
