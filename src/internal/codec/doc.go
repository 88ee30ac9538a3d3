// Package codec parses compound scalar configuration fields into validated
// values.
//
// Codecs are pure functions: the same input always yields the same value or
// the same *errors.Error. Errors carry the offending value but no field name;
// callers attribute them with (*errors.Error).WithField.
//
//	r, err := codec.ParsePortRange("1000:2000")
//	ports, err := codec.ParsePortList("80,443")
//	addr, err := codec.ParseAddress("wan")
package codec
