package params

import (
	"errors"
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-resource-query/dictionary"
)

var integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

// RuleSet is the compiled acceptance rule set of one schema.
type RuleSet struct {
	schema dictionary.Schema
	rules  validation.MapRule
}

// Compile builds the rule set for schema. Fields without a rule are not
// validated but still pass through.
func Compile(schema dictionary.Schema) RuleSet {
	var keys []*validation.KeyRules
	for _, f := range schema.Fields {
		if f.Rule == nil {
			continue
		}
		keys = append(keys, validation.Key(f.QueryParam(), fieldRules(f)...))
	}
	return RuleSet{
		schema: schema,
		rules:  validation.Map(keys...).AllowExtraKeys(),
	}
}

func fieldRules(f dictionary.Field) []validation.Rule {
	r := f.Rule
	var rules []validation.Rule

	if r.Required {
		rules = append(rules, validation.Required.ErrorObject(reasonError(MissingRequiredParameter)))
	}

	switch f.ValueType() {
	case dictionary.TypeInteger:
		rules = append(rules, validation.Match(integerPattern).ErrorObject(reasonError(InvalidType)))
	case dictionary.TypeNumber:
		rules = append(rules, parsesAs(func(s string) error {
			_, err := strconv.ParseFloat(s, 64)
			return err
		}))
	case dictionary.TypeBoolean:
		rules = append(rules, parsesAs(func(s string) error {
			_, err := strconv.ParseBool(s)
			return err
		}))
	case dictionary.TypeDate:
		rules = append(rules, validation.Date(dictionary.DateLayout).ErrorObject(reasonError(InvalidType)))
	}

	if r.MinLength > 0 {
		rules = append(rules, validation.RuneLength(r.MinLength, 0).ErrorObject(reasonError(BelowMinimumLength)))
	}
	if r.MaxLength > 0 {
		rules = append(rules, validation.RuneLength(0, r.MaxLength).ErrorObject(reasonError(AboveMaximumLength)))
	}

	if len(r.Allowed) > 0 {
		allowed := make([]interface{}, len(r.Allowed))
		for i, a := range r.Allowed {
			allowed[i] = a
		}
		rules = append(rules, validation.In(allowed...).ErrorObject(reasonError(NotAllowedValue)))
	}

	return rules
}

func reasonError(kind ReasonKind) validation.Error {
	return validation.NewError(string(kind), string(kind))
}

func parsesAs(parse func(string) error) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if parse(s) != nil {
			return reasonError(InvalidType)
		}
		return nil
	})
}

// Validate applies the rule set to raw request parameters. Empty values
// count as absent, absent values take the declared default, and unknown
// keys are ignored. Every violation is collected before returning.
func (rs RuleSet) Validate(raw map[string]string) (Params, error) {
	effective := make(map[string]interface{}, len(rs.schema.Fields))
	out := newParams(len(rs.schema.Fields))

	for _, f := range rs.schema.Fields {
		v := raw[f.QueryParam()]
		if v == "" && f.Rule.HasDefault() {
			v = f.Rule.DefaultValue()
		}
		if f.Rule != nil {
			effective[f.QueryParam()] = v
		}
		if v != "" {
			out.set(f, v)
		}
	}

	err := rs.rules.Validate(effective)
	if err == nil {
		return out, nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return Params{}, err
	}

	verr := &ValidationError{Resource: rs.schema.Name}
	for _, f := range rs.schema.Fields {
		ferr, ok := fieldErrs[f.QueryParam()]
		if !ok {
			continue
		}
		verr.Reasons = append(verr.Reasons, reasonFor(f, ferr, raw[f.QueryParam()]))
	}
	return Params{}, verr
}

func reasonFor(f dictionary.Field, err error, value string) Reason {
	kind := InvalidType
	var verr validation.Error
	if errors.As(err, &verr) {
		kind = ReasonKind(verr.Code())
	}

	r := Reason{Kind: kind, Param: f.QueryParam(), Value: value}
	switch kind {
	case BelowMinimumLength:
		r.Min = f.Rule.MinLength
	case AboveMaximumLength:
		r.Max = f.Rule.MaxLength
	case NotAllowedValue:
		r.Allowed = append([]string(nil), f.Rule.Allowed...)
	case InvalidType:
		r.Type = f.ValueType()
	}
	return r
}

// Validate compiles the rules of schema and applies them to raw.
func Validate(schema dictionary.Schema, raw map[string]string) (Params, error) {
	return Compile(schema).Validate(raw)
}
