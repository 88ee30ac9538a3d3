// Package commands implements the proxycfg subcommands.
//
// Every command follows the Runner interface: Init parses its flags and
// opens the store file named by the global -config flag, Run does the work.
// Commands that change the store validate first and write only with -commit.
package commands
