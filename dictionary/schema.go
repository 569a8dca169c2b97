package dictionary

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// SourceKind names the live source a resource is served from.
type SourceKind string

const (
	SourceLocal    SourceKind = "local"
	SourceUpstream SourceKind = "upstream"
)

// DefaultRefreshParam is the request parameter that forces a cache refresh.
const DefaultRefreshParam = "refreshCache"

// Schema is the ordered field dictionary of one resource plus its
// resource-level attributes.
type Schema struct {
	Name         string     `yaml:"name"`
	Cacheable    bool       `yaml:"cacheable"`
	Source       SourceKind `yaml:"source"`
	Table        string     `yaml:"table"`
	Endpoint     string     `yaml:"endpoint"`
	RefreshParam string     `yaml:"refreshParam"`
	Order        string     `yaml:"order"`
	Fields       []Field    `yaml:"fields"`
}

// Normalize fills in defaults for omitted attributes.
func (s Schema) Normalize() Schema {
	out := s.Clone()
	if out.Source == "" {
		out.Source = SourceLocal
	}
	if out.Table == "" && out.Source == SourceLocal {
		out.Table = toSnake(out.Name)
	}
	if out.RefreshParam == "" {
		out.RefreshParam = DefaultRefreshParam
	}
	for i := range out.Fields {
		if out.Fields[i].Mode == "" {
			out.Fields[i].Mode = ModeNone
		}
		if out.Fields[i].Param == "" {
			out.Fields[i].Param = out.Fields[i].Name
		}
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	out := s
	out.Fields = make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		out.Fields[i] = f.clone()
	}
	return out
}

// Field returns the descriptor with the given external name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ResourceIDField returns the single-record identity field, if any.
func (s Schema) ResourceIDField() (Field, bool) {
	for _, f := range s.Fields {
		if f.ResourceID && f.Mode == ModeEqual {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the schema attributes and the dictionary invariants.
// The returned error is a *goerrors.Error in the validation category.
func (s Schema) Validate() error {
	errs := validation.Errors{}

	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Source, validation.In(SourceLocal, SourceUpstream)),
		validation.Field(&s.Endpoint, validation.When(s.Source == SourceUpstream, validation.Required)),
		validation.Field(&s.Table, validation.When(s.Source == SourceLocal, validation.Required)),
	); err != nil {
		if fieldErrs, ok := err.(validation.Errors); ok {
			for k, v := range fieldErrs {
				errs[k] = v
			}
		} else {
			return err
		}
	}

	names := map[string]int{}
	params := map[string]int{}
	identities := 0

	for i, f := range s.Fields {
		path := fmt.Sprintf("fields[%d]", i)

		if f.Name == "" {
			errs[path+".name"] = validation.NewError("dictionary_name_required", "cannot be blank")
			continue
		}
		if prev, ok := names[f.Name]; ok {
			errs[path+".name"] = validation.NewError("dictionary_name_duplicate",
				fmt.Sprintf("duplicates fields[%d]", prev))
		}
		names[f.Name] = i

		param := f.QueryParam()
		if prev, ok := params[param]; ok {
			errs[path+".param"] = validation.NewError("dictionary_param_duplicate",
				fmt.Sprintf("%q duplicates fields[%d]", param, prev))
		}
		params[param] = i

		if !f.Mode.Valid() {
			errs[path+".mode"] = validation.NewError("dictionary_mode_invalid",
				fmt.Sprintf("unknown mode %q", f.Mode))
		}
		if f.Queryable() && f.Storage == "" {
			errs[path+".storage"] = validation.NewError("dictionary_storage_required",
				"queryable fields need a storage name")
		}
		if f.ResourceID && f.Mode == ModeEqual {
			identities++
			if identities > 1 {
				errs[path+".resourceId"] = validation.NewError("dictionary_identity_duplicate",
					"only one equal field can be the resource id")
			}
		}
		if f.Rule != nil {
			if err := validateRule(f.Rule); err != nil {
				errs[path+".rule"] = err
			}
		}
	}

	if err := errs.Filter(); err != nil {
		return goerrors.FromOzzoValidation(err, "invalid resource schema "+s.Name).
			WithTextCode("INVALID_SCHEMA")
	}
	return nil
}

func validateRule(r *Rule) error {
	switch {
	case !r.Type.Valid():
		return validation.NewError("dictionary_type_invalid", fmt.Sprintf("unknown type %q", r.Type))
	case r.MinLength < 0 || r.MaxLength < 0:
		return validation.NewError("dictionary_length_invalid", "lengths must be non-negative")
	case r.MaxLength > 0 && r.MaxLength < r.MinLength:
		return validation.NewError("dictionary_length_invalid", "maxLength is below minLength")
	case r.HasDefault() && !r.Allows(r.DefaultValue()):
		return validation.NewError("dictionary_default_invalid",
			fmt.Sprintf("default %q is not an allowed value", r.DefaultValue()))
	}
	return nil
}
