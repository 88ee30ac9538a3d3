// Package config holds the typed records of the homeproxy configuration and
// their syntactic rules.
//
// Every record kind is a struct whose toml tags name the store options and
// whose validate tags declare the per-value checks (ports, port ranges,
// addresses, enumerations, flags). The same tags drive three things:
//
//   - Decode turns a store snapshot into a typed Config, applying the
//     declared defaults for absent options;
//   - CheckValues validates a single proposed field edit and reports an
//     error code the caller can act on;
//   - Config.ValidateConfig audits every record at once and returns the
//     numbered ValidationErrors list.
//
// Cross-record rules (label uniqueness, references and chain cycles) live in
// the engine package.
package config
