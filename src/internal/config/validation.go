package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maksimkurb/proxycfg/src/internal/codec"
)

var ifnameRegexp = regexp.MustCompile(`^[^\s/:]{1,15}$`)

// codecChecks backs the custom validator tags that have a dedicated codec.
// Their errors carry a precise error code, so callers that need one run the
// codec directly through CheckValue.
var codecChecks = map[string]func(string) error{
	"port": func(s string) error {
		_, err := codec.ParsePort(s)
		return err
	},
	"port_range": func(s string) error {
		_, err := codec.ParsePortRange(s)
		return err
	},
	"routing_port": func(s string) error {
		_, err := codec.ParseRoutingPort(s)
		return err
	},
	"ip_or_sentinel": func(s string) error {
		_, err := codec.ParseAddress(s)
		return err
	},
	"dns_address": func(s string) error {
		_, err := codec.ParseServerAddress(s)
		return err
	},
}

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	if check, ok := codecChecks[e.Tag()]; ok {
		if err := check(fmt.Sprint(e.Value())); err != nil {
			if msg := errorMessage(err); msg != "" {
				return msg
			}
		}
	}

	switch e.Tag() {
	case "required":
		return "Expecting: non-empty value"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "unique":
		return "must not contain duplicate values"
	case "uci_flag":
		return "must be 0 or 1"
	case "domain_name":
		return "Expecting: valid hostname"
	case "regexp":
		return "must be a valid regular expression"
	case "cidr|ip":
		return "must be a valid IP address or CIDR"
	case "ifname":
		return "must be a valid network interface name"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // Record label or section name (e.g., "HK relay", "cfg000003")
	FieldPath string // Collection and field (e.g., "routing_node.outbound")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	for tag, check := range codecChecks {
		check := check
		if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		}); err != nil {
			panic(err)
		}
	}
	if err := validate.RegisterValidation("uci_flag", validateFlag); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("domain_name", validateDomainName); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("regexp", validateRegexp); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("ifname", validateIfname); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	buildRegistry()
}

func validateFlag(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == FlagOn || v == FlagOff
}

func validateDomainName(fl validator.FieldLevel) bool {
	return codec.IsHostname(fl.Field().String())
}

func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

func validateIfname(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v != "." && v != ".." && ifnameRegexp.MatchString(v)
}

// NormalizeFlag maps the accepted spellings of a boolean onto a UCI flag.
func NormalizeFlag(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on", "enabled":
		return FlagOn, true
	case "0", "false", "no", "off", "disabled":
		return FlagOff, true
	}
	return v, false
}
