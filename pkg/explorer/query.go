package explorer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/terrascout/terrascout/internal/constants"
)

// clauseSpecParts is the number of segments in a field:operator:value spec.
const clauseSpecParts = 3

// QueryParam is a single encoded query parameter.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams is an insertion-ordered list of query parameters. Unlike
// url.Values it never sorts keys, so filter positions survive encoding.
type QueryParams struct {
	params []QueryParam
}

// NewQueryParams creates an empty parameter list.
func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// Add appends a parameter.
func (q *QueryParams) Add(key, value string) *QueryParams {
	q.params = append(q.params, QueryParam{Key: key, Value: value})

	return q
}

// WithType sets the explorer resource kind discriminator.
func (q *QueryParams) WithType(kind ResourceKind) *QueryParams {
	return q.Add(constants.QueryParamType, kind.String())
}

// WithPageSize sets page[size].
func (q *QueryParams) WithPageSize(size int) *QueryParams {
	return q.Add(constants.QueryParamPageSize, strconv.Itoa(size))
}

// Params returns a copy of the parameters in insertion order.
func (q *QueryParams) Params() []QueryParam {
	out := make([]QueryParam, len(q.params))
	copy(out, q.params)

	return out
}

// Get returns the first value stored under key.
func (q *QueryParams) Get(key string) (string, bool) {
	for _, p := range q.params {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Len returns the number of parameters.
func (q *QueryParams) Len() int {
	return len(q.params)
}

// Encode renders the parameters as a URL query string in insertion order.
func (q *QueryParams) Encode() string {
	var b strings.Builder

	for i, p := range q.params {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}

	return b.String()
}

// FilterKey returns the parameter key for the filter at position index.
func FilterKey(index int, field, op string) string {
	return fmt.Sprintf("filter[%d][%s][%s][0]", index, field, op)
}

// EncodeFilters appends one filter[i][field][operator][0] parameter per clause,
// numbered by input position.
func EncodeFilters[F Field](q *QueryParams, filters []Clause[F]) *QueryParams {
	for i, f := range filters {
		q.Add(FilterKey(i, f.Field.String(), f.Operator.String()), f.Value)
	}

	return q
}

// ExplorerQuery builds the full explorer query for a resource kind.
func ExplorerQuery[F Field](kind ResourceKind, filters []Clause[F]) *QueryParams {
	q := NewQueryParams().WithType(kind).WithPageSize(constants.PageSize)

	return EncodeFilters(q, filters)
}

// ParseClause parses a field:operator:value spec using the given field parser.
// The value may itself contain colons. Unary operators accept field:operator.
func ParseClause[F Field](spec string, parseField func(string) (F, error)) (Clause[F], error) {
	parts := strings.SplitN(spec, ":", clauseSpecParts)
	if len(parts) < clauseSpecParts-1 {
		return Clause[F]{}, fmt.Errorf("%w: %q (expected field:operator:value)", ErrInvalidFilterSpec, spec)
	}

	field, err := parseField(parts[0])
	if err != nil {
		return Clause[F]{}, err
	}

	op, err := ParseOperator(parts[1])
	if err != nil {
		return Clause[F]{}, err
	}

	if len(parts) < clauseSpecParts {
		if !op.Unary() {
			return Clause[F]{}, fmt.Errorf("%w: %q (operator %s requires a value)", ErrInvalidFilterSpec, spec, op)
		}

		return Clause[F]{Field: field, Operator: op}, nil
	}

	return Clause[F]{Field: field, Operator: op, Value: parts[2]}, nil
}

// ParseClauses parses every spec, stopping at the first error.
func ParseClauses[F Field](specs []string, parseField func(string) (F, error)) ([]Clause[F], error) {
	clauses := make([]Clause[F], 0, len(specs))

	for _, spec := range specs {
		clause, err := ParseClause(spec, parseField)
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, clause)
	}

	return clauses, nil
}
