package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
)

// FieldSpec describes one option of a record kind, derived from the struct
// tags of its typed record.
type FieldSpec struct {
	Name     string
	List     bool
	Required bool
	Unique   bool
	Default  string

	// Tags are the validator tags applied to every value.
	Tags []string

	index []int
}

type recordKind struct {
	typ    reflect.Type
	fields []FieldSpec
	byName map[string]int
}

var kinds map[string]*recordKind

func buildRegistry() {
	kinds = make(map[string]*recordKind)
	register := func(key string, record any) {
		kinds[key] = newRecordKind(reflect.TypeOf(record))
	}

	register(CollectionNode, Node{})
	register(CollectionRoutingNode, RoutingNode{})
	register(CollectionRoutingRule, RoutingRule{})
	register(CollectionDNSServer, DNSServer{})
	register(CollectionDNSRule, DNSRule{})
	register(kindKey(CollectionSettings, SectionMain), MainSettings{})
	register(kindKey(CollectionSettings, SectionRouting), RoutingSettings{})
	register(kindKey(CollectionSettings, SectionDNS), DNSSettings{})
}

// kindKey maps settings sections onto their own kinds; every other
// collection has one kind for all of its records.
func kindKey(collection, id string) string {
	if collection == CollectionSettings {
		return collection + "." + id
	}
	return collection
}

func lookupKind(collection, id string) (*recordKind, bool) {
	k, ok := kinds[kindKey(collection, id)]
	return k, ok
}

func newRecordKind(t reflect.Type) *recordKind {
	k := &recordKind{typ: t, byName: make(map[string]int)}
	collectFields(t, nil, k)
	return k
}

func collectFields(t reflect.Type, prefix []int, k *recordKind) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, index, k)
			continue
		}

		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}

		spec := FieldSpec{
			Name:    name,
			List:    f.Type.Kind() == reflect.Slice,
			Default: f.Tag.Get("default"),
			index:   index,
		}
		parseValidateTag(f.Tag.Get("validate"), &spec)

		k.byName[name] = len(k.fields)
		k.fields = append(k.fields, spec)
	}
}

// parseValidateTag splits a validate tag into field-level markers and the
// tags checked against each value. For lists, only tags after "dive" apply
// to values.
func parseValidateTag(tag string, spec *FieldSpec) {
	if tag == "" {
		return
	}
	dived := !spec.List
	for _, token := range strings.Split(tag, ",") {
		switch {
		case token == "dive":
			dived = true
		case token == "omitempty":
		case !dived && token == "required":
			spec.Required = true
		case !dived && token == "unique":
			spec.Unique = true
		case dived && token == "required" && !spec.List:
			spec.Required = true
		case dived:
			spec.Tags = append(spec.Tags, token)
		}
	}
}

// LookupField returns the FieldSpec of a field of the given record kind.
func LookupField(collection, id, field string) (FieldSpec, bool) {
	k, ok := lookupKind(collection, id)
	if !ok {
		return FieldSpec{}, false
	}
	i, ok := k.byName[field]
	if !ok {
		return FieldSpec{}, false
	}
	return k.fields[i], true
}

// Fields returns the field specs of a record kind in declaration order.
func Fields(collection, id string) []FieldSpec {
	k, ok := lookupKind(collection, id)
	if !ok {
		return nil
	}
	return append([]FieldSpec(nil), k.fields...)
}

// KnownKind reports whether records of collection (and, for settings, the
// section id) have a typed record.
func KnownKind(collection, id string) bool {
	_, ok := lookupKind(collection, id)
	return ok
}

// HasTag reports whether tag is checked against every value of the field.
func (s FieldSpec) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag || strings.HasPrefix(t, tag+"=") {
			return true
		}
	}
	return false
}

// IsFlag reports whether the field holds a UCI flag.
func (s FieldSpec) IsFlag() bool {
	return s.HasTag("uci_flag")
}

// CheckValues runs the syntactic checks declared for the field over a
// proposed set of values. It returns an *errors.Error naming the field and
// the offending value.
func CheckValues(spec FieldSpec, values []string) error {
	if len(values) == 0 || (!spec.List && len(values) == 1 && values[0] == "") {
		if spec.Required {
			return pcerrors.Invalid(pcerrors.ErrCodeRequiredFieldEmpty, spec.Name, "")
		}
		return nil
	}

	if !spec.List {
		if len(values) > 1 {
			return pcerrors.Invalidf(pcerrors.ErrCodeInvalidValue, spec.Name, strings.Join(values, " "),
				"Expecting: single value for {field}")
		}
		return CheckValue(spec, values[0])
	}

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			return pcerrors.Invalid(pcerrors.ErrCodeRequiredFieldEmpty, spec.Name, v)
		}
		if err := CheckValue(spec, v); err != nil {
			return err
		}
		if spec.Unique && seen[v] {
			if spec.HasTag("port") {
				return pcerrors.Invalid(pcerrors.ErrCodeDuplicatePort, spec.Name, v)
			}
			return pcerrors.Invalidf(pcerrors.ErrCodeInvalidValue, spec.Name, v,
				"Expecting: unique value, {value} is already used")
		}
		seen[v] = true
	}
	return nil
}

// CheckValue runs the value tags of spec against a single value. Tags backed
// by a codec report the codec's own error code.
func CheckValue(spec FieldSpec, value string) error {
	for _, tag := range spec.Tags {
		if check, ok := codecChecks[tag]; ok {
			if err := check(value); err != nil {
				var e *pcerrors.Error
				if errors.As(err, &e) {
					return e.WithField(spec.Name)
				}
				return pcerrors.Invalid(pcerrors.ErrCodeInvalidValue, spec.Name, value)
			}
			continue
		}

		if tag == "required" {
			if value == "" {
				return pcerrors.Invalid(pcerrors.ErrCodeRequiredFieldEmpty, spec.Name, value)
			}
			continue
		}

		if err := validate.Var(value, tag); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				return pcerrors.Invalidf(pcerrors.ErrCodeInvalidValue, spec.Name, value,
					getValidationMessage(fieldErrs[0]))
			}
			return pcerrors.Invalid(pcerrors.ErrCodeInvalidValue, spec.Name, value)
		}
	}
	return nil
}

func errorMessage(err error) string {
	var e *pcerrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
