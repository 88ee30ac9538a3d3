package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig runs the declared syntactic checks over every record and
// returns all validation errors. Cross-record rules (references, uniqueness,
// cycles) are the engine's job.
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	for i, n := range c.Nodes {
		validationErrors = append(validationErrors, validateRecord(n, CollectionNode, itemName(n.Label, n.Name, CollectionNode, i))...)
	}
	for i, r := range c.RoutingNodes {
		validationErrors = append(validationErrors, validateRecord(r, CollectionRoutingNode, itemName(r.Label, r.Name, CollectionRoutingNode, i))...)
	}
	for i, r := range c.RoutingRules {
		validationErrors = append(validationErrors, validateRecord(r, CollectionRoutingRule, itemName(r.Label, r.Name, CollectionRoutingRule, i))...)
	}
	for i, s := range c.DNSServers {
		validationErrors = append(validationErrors, validateRecord(s, CollectionDNSServer, itemName(s.Label, s.Name, CollectionDNSServer, i))...)
	}
	for i, r := range c.DNSRules {
		validationErrors = append(validationErrors, validateRecord(r, CollectionDNSRule, itemName(r.Label, r.Name, CollectionDNSRule, i))...)
	}

	validationErrors = append(validationErrors, validateRecord(c.Main, CollectionSettings+"."+SectionMain, "")...)
	validationErrors = append(validationErrors, validateRecord(c.Routing, CollectionSettings+"."+SectionRouting, "")...)
	validationErrors = append(validationErrors, validateRecord(c.DNS, CollectionSettings+"."+SectionDNS, "")...)

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func validateRecord(record any, fieldPrefix, name string) ValidationErrors {
	if err := validate.Struct(record); err != nil {
		return convertValidatorErrors(err, fieldPrefix, name)
	}
	return nil
}

// itemName prefers the label, then the section name, then the position.
func itemName(label, name, collection string, i int) string {
	if label != "" {
		return label
	}
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s[%d]", collection, i)
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the toml tag name because of the registered TagNameFunc
				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + e.Field()
				} else {
					fieldPath = e.Field()
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
