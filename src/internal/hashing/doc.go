// Package hashing computes content checksums of a configuration store.
// A revision changes whenever any record, field or value changes, which lets
// API clients detect edits made since they last read the store.
package hashing
