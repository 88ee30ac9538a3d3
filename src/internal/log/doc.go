// Package log provides leveled logging for the proxycfg hosts.
//
// Messages are printf-formatted and prefixed with a coloured level tag:
// DEBUG (only in verbose mode), INFO, WARN and ERROR. Errors go to stderr,
// everything else to stdout unless SetForceStdErr is set. The validation
// engine itself never logs; only the CLI, the API server and the store
// watcher do.
//
//	log.SetVerbose(true)
//	log.Debugf("Loaded %d routing nodes", n)
//	log.Errorf("Failed to reload store: %v", err)
//
// All functions are safe for concurrent use.
package log
