package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError is one configuration problem, located by line and column
// for syntax errors or by key for value errors.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// validate reports struct fields by their config key.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateYAMLSyntax checks that the file at filePath parses as YAML. A
// missing or empty file is valid.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, os.ErrPermission):
		return &ValidationError{FilePath: filePath, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return validateYAMLBytes(data, filePath)
}

func validateYAMLBytes(data []byte, filePath string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		line, column := extractLineColumn(err.Error())
		return &ValidationError{
			FilePath: filePath,
			Line:     line,
			Column:   column,
			Message:  cleanYAMLError(err.Error()),
		}
	}
	return nil
}

// ValidateConfigValues checks value ranges and the rules between keys. Every
// problem found is reported, joined into one error.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, &ValidationError{FilePath: filePath, Field: field, Message: msg})
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{FilePath: filePath, Message: err.Error()}
		}
		for _, fe := range fieldErrs {
			add(configKey(fe), describeFieldError(fe))
		}
	}

	if cfg.Command != "" && !strings.Contains(cfg.Command, "{{FEATURES}}") {
		add("command", "must contain {{FEATURES}} placeholder")
	}
	if cfg.Strategy == "bounded" && cfg.MaxSubsets < 1 {
		add("max_subsets", "must be at least 1 with the bounded strategy")
	}
	if cfg.BackoffMax > 0 && cfg.BackoffBase > cfg.BackoffMax {
		add("backoff_base", fmt.Sprintf("must not exceed backoff_max (%s)", cfg.BackoffMax))
	}

	seen := make(map[string]bool, len(cfg.Allow))
	for i, entry := range cfg.Allow {
		if entry.Name != "" && seen[entry.Name] {
			add(fmt.Sprintf("allow[%d].name", i), fmt.Sprintf("duplicate entry name %q", entry.Name))
		}
		seen[entry.Name] = true
	}

	return errors.Join(errs...)
}

// configKey turns a validator namespace such as "Configuration.allow[0].name"
// into the config key "allow[0].name".
func configKey(fe validator.FieldError) string {
	_, key, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return key
}

// extractLineColumn reads the position out of a yaml.v3 error message such
// as "yaml: line 5: could not find expected ':'". Returns 0, 0 when absent.
func extractLineColumn(errMsg string) (line, column int) {
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 1
	}
	return 0, 0
}

// cleanYAMLError strips the "yaml: line X:" prefix.
func cleanYAMLError(errMsg string) string {
	if !strings.HasPrefix(errMsg, "yaml:") {
		return errMsg
	}
	if idx := strings.LastIndex(errMsg, ": "); idx > 0 {
		return errMsg[idx+2:]
	}
	return errMsg
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "failed validation: " + fe.Tag()
}
