// Package engine keeps a homeproxy configuration self-consistent while its
// records are edited one field at a time.
//
// Every call takes an explicit store snapshot and is pure: the engine decodes
// the snapshot, evaluates the proposed edit against it and returns a Verdict.
// Nothing is cached between calls and nothing is written; hosts commit an
// accepted edit themselves and must serialize validate+commit.
//
// Validate checks, in order, the field's declared syntax (config tags and
// codecs), label uniqueness within the collection, and for reference fields
// the target's existence, its enabled flag and, for routing node outbounds
// and DNS address resolvers, that the chain stays acyclic. ValidateCommit
// checks an edit and its pending sibling values as one change, so a host
// can write them together. Accepted verdicts list the references the edit
// orphans. Candidates
// computes the same legal target set for presentation. Check audits a whole
// store and ValidateDelete reports references a deletion would leave
// dangling.
package engine
