package dictionary

// Mode controls how a field participates in predicate compilation.
type Mode string

const (
	// ModeNone fields are validated and passed through but never filter.
	ModeNone Mode = "none"
	// ModeEqual fields compile to `storage = ?`.
	ModeEqual Mode = "equal"
	// ModeLike fields compile to a prefix match `storage LIKE ?`.
	ModeLike Mode = "like"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeEqual, ModeLike:
		return true
	}
	return false
}

// Type is the declared value type of a parameter.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
)

// DateLayout is the layout accepted for TypeDate values.
const DateLayout = "2006-01-02"

// Valid reports whether t is a known type. The zero value is treated as string.
func (t Type) Valid() bool {
	switch t {
	case "", TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate:
		return true
	}
	return false
}

// Rule is the declarative acceptance rule attached to a field.
type Rule struct {
	Required  bool     `yaml:"required"`
	Type      Type     `yaml:"type"`
	MinLength int      `yaml:"minLength"`
	MaxLength int      `yaml:"maxLength"`
	Default   *string  `yaml:"default"`
	Allowed   []string `yaml:"allowed"`
}

// HasDefault reports whether the rule declares a default value.
func (r *Rule) HasDefault() bool {
	return r != nil && r.Default != nil
}

// DefaultValue returns the declared default or the empty string.
func (r *Rule) DefaultValue() string {
	if !r.HasDefault() {
		return ""
	}
	return *r.Default
}

// Allows reports whether v is a member of the allowed set. An empty set allows everything.
func (r *Rule) Allows(v string) bool {
	if r == nil || len(r.Allowed) == 0 {
		return true
	}
	for _, a := range r.Allowed {
		if a == v {
			return true
		}
	}
	return false
}

func (r *Rule) clone() *Rule {
	if r == nil {
		return nil
	}
	out := *r
	if r.Default != nil {
		d := *r.Default
		out.Default = &d
	}
	out.Allowed = append([]string(nil), r.Allowed...)
	return &out
}

// Field describes one queryable or validatable attribute of a resource.
type Field struct {
	Name        string `yaml:"name"`
	Storage     string `yaml:"storage"`
	Mode        Mode   `yaml:"mode"`
	Param       string `yaml:"param"`
	Rule        *Rule  `yaml:"rule"`
	ResourceID  bool   `yaml:"resourceId"`
	Description string `yaml:"description"`
}

// QueryParam returns the request parameter key bound to the field.
func (f Field) QueryParam() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Name
}

// Queryable reports whether the field contributes a predicate clause.
func (f Field) Queryable() bool {
	return f.Mode == ModeEqual || f.Mode == ModeLike
}

// ValueType returns the declared type, defaulting to string.
func (f Field) ValueType() Type {
	if f.Rule == nil || f.Rule.Type == "" {
		return TypeString
	}
	return f.Rule.Type
}

func (f Field) clone() Field {
	f.Rule = f.Rule.clone()
	return f
}
