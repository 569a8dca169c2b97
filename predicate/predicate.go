package predicate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/params"
)

// Placeholder is the positional marker emitted for every bound value.
const Placeholder = "?"

// LikeEscape is the escape character of like bindings.
const LikeEscape = `\`

var (
	likeEscaper   = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	likeUnescaper = strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`)
)

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UnescapeLike reverses EscapeLike.
func UnescapeLike(s string) string {
	return likeUnescaper.Replace(s)
}

// Operator is the comparison a clause applies.
type Operator string

const (
	OpEqual Operator = "="
	OpLike  Operator = "LIKE"
)

// Conjunction joins the clauses of a predicate.
type Conjunction string

const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// Clause is one (field, operator, placeholder) triple.
type Clause struct {
	Field       string
	Op          Operator
	Placeholder string
}

// SQL renders the clause, e.g. `q LIKE ?`.
func (c Clause) SQL() string {
	return c.Field + " " + string(c.Op) + " " + c.Placeholder
}

// Predicate is the compiled filter of one request. Clauses and Bindings
// are parallel and ordered by the field dictionary.
type Predicate struct {
	Clauses     []Clause
	Bindings    []any
	Conjunction Conjunction
}

// Len returns the number of clauses.
func (p Predicate) Len() int { return len(p.Clauses) }

// Empty reports whether the predicate filters nothing.
func (p Predicate) Empty() bool { return len(p.Clauses) == 0 }

func (p Predicate) joiner() string {
	if p.Conjunction == "" {
		return " " + string(And) + " "
	}
	return " " + string(p.Conjunction) + " "
}

// SQL renders the clauses joined by the conjunction, e.g. `type = ? AND q LIKE ?`.
func (p Predicate) SQL() string {
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.SQL()
	}
	return strings.Join(parts, p.joiner())
}

// CacheKey renders the predicate with its bindings inlined and quoted,
// e.g. `type = "all" AND q LIKE "ago%"`. An empty predicate renders as `*`.
func (p Predicate) CacheKey() string {
	if p.Empty() {
		return "*"
	}
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.Field + " " + string(c.Op) + " " + literal(p.Bindings[i])
	}
	return strings.Join(parts, p.joiner())
}

func literal(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Apply adds the predicate to q as a single grouped condition. Column
// names are quoted as identifiers and like clauses declare LikeEscape.
func (p Predicate) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if p.Empty() {
		return q
	}
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for i, c := range p.Clauses {
			expr := "? " + string(c.Op) + " ?"
			if c.Op == OpLike {
				expr += " ESCAPE '" + LikeEscape + "'"
			}
			if p.Conjunction == Or {
				q = q.WhereOr(expr, bun.Ident(c.Field), p.Bindings[i])
			} else {
				q = q.Where(expr, bun.Ident(c.Field), p.Bindings[i])
			}
		}
		return q
	})
}

// Option customizes compilation.
type Option func(*Predicate)

// WithConjunction joins clauses with c instead of AND.
func WithConjunction(c Conjunction) Option {
	return func(p *Predicate) {
		p.Conjunction = c
	}
}

// Compile turns normalized parameters into a predicate. Only fields with
// mode equal or like that carry a value contribute, in dictionary order.
// Like values are bound as a prefix match with their own wildcards escaped.
func Compile(schema dictionary.Schema, p params.Params, opts ...Option) Predicate {
	out := Predicate{Conjunction: And}
	for _, opt := range opts {
		opt(&out)
	}

	for _, f := range schema.Fields {
		if !f.Queryable() {
			continue
		}
		v, ok := p.Get(f.Name)
		if !ok {
			continue
		}

		switch f.Mode {
		case dictionary.ModeEqual:
			out.Clauses = append(out.Clauses, Clause{Field: f.Storage, Op: OpEqual, Placeholder: Placeholder})
			out.Bindings = append(out.Bindings, typed(f, v))
		case dictionary.ModeLike:
			out.Clauses = append(out.Clauses, Clause{Field: f.Storage, Op: OpLike, Placeholder: Placeholder})
			out.Bindings = append(out.Bindings, EscapeLike(v)+"%")
		}
	}
	return out
}

// typed converts a validated value into its declared Go type. Values
// that fail to parse stay strings.
func typed(f dictionary.Field, v string) any {
	switch f.ValueType() {
	case dictionary.TypeInteger:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case dictionary.TypeNumber:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	case dictionary.TypeBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

// ResourceID returns the value of the schema's identity field when the
// request carries one. Callers use it to take a single-record path.
func ResourceID(schema dictionary.Schema, p params.Params) (string, bool) {
	f, ok := schema.ResourceIDField()
	if !ok {
		return "", false
	}
	return p.Get(f.Name)
}
