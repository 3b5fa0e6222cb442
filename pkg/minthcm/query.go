package minthcm

import (
	"fmt"
	"sort"
	"strings"
)

// Operator is a filter comparison operator as written in MintHCM queries.
type Operator string

// Supported operators.
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "<>"
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpLike           Operator = "LIKE"
	OpNotLike        Operator = "NOT LIKE"
	OpIn             Operator = "IN"
	OpNotIn          Operator = "NOT IN"
	OpBetween        Operator = "BETWEEN"
)

// operatorCodes maps operators to their query-string codes. BETWEEN has no
// code of its own; it expands to GT and LT.
var operatorCodes = map[Operator]string{
	OpEqual:          "EQ",
	OpNotEqual:       "NEQ",
	OpGreaterThan:    "GT",
	OpGreaterOrEqual: "GTE",
	OpLessThan:       "LT",
	OpLessOrEqual:    "LTE",
	OpLike:           "LIKE",
	OpNotLike:        "NOT_LIKE",
	OpIn:             "IN",
	OpNotIn:          "NOT_IN",
}

// ParseOperator validates an operator string.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if op == OpBetween {
		return op, nil
	}

	if _, ok := operatorCodes[op]; !ok {
		return "", unknownOperator(op)
	}

	return op, nil
}

// Code returns the query-string code of the operator.
func (o Operator) Code() (string, error) {
	code, ok := operatorCodes[o]
	if !ok {
		return "", unknownOperator(o)
	}

	return code, nil
}

func unknownOperator(op Operator) error {
	return NewRequestError(fmt.Sprintf("unknown filter operator %q", string(op)), 0, "", ErrUnknownOperator)
}

// Combinator joins all filter clauses of one query.
type Combinator string

// Supported combinators.
const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// normalize falls back to "and" for anything other than "and" or "or".
func (c Combinator) normalize() Combinator {
	if c == CombinatorOr {
		return CombinatorOr
	}

	return CombinatorAnd
}

// Comparison is the structured form of a filter value.
type Comparison struct {
	Operator Operator
	Value    any
}

// Filter is one clause of a query. An empty Operator means equality.
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

// FiltersFromMap converts the mapping form of a filter set into filters.
// Values are literals (equality), Comparison values, or maps with "operator"
// and "value" keys. Fields are emitted in sorted order.
func FiltersFromMap(filters map[string]any) ([]Filter, error) {
	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	result := make([]Filter, 0, len(fields))

	for _, field := range fields {
		filter, err := filterFromValue(field, filters[field])
		if err != nil {
			return nil, err
		}

		result = append(result, filter)
	}

	return result, nil
}

func filterFromValue(field string, value any) (Filter, error) {
	switch v := value.(type) {
	case Comparison:
		return comparisonFilter(field, string(v.Operator), v.Value)
	case *Comparison:
		return comparisonFilter(field, string(v.Operator), v.Value)
	case map[string]any:
		op, _ := v["operator"].(string)

		return comparisonFilter(field, op, v["value"])
	default:
		return Filter{Field: field, Operator: OpEqual, Value: value}, nil
	}
}

func comparisonFilter(field, op string, value any) (Filter, error) {
	operator, err := ParseOperator(op)
	if err != nil {
		return Filter{}, err
	}

	return Filter{Field: field, Operator: operator, Value: value}, nil
}

// QueryParams describes a module query.
type QueryParams struct {
	// Fields limits the attributes returned for each record.
	Fields []string
	// Sort is a single field; records are sorted descending by it.
	Sort string
	// Combinator joins the filters. Defaults to "and".
	Combinator Combinator
	Filters    []Filter
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{Combinator: CombinatorAnd}
}

// WithFields sets the returned fields.
func (q *QueryParams) WithFields(fields ...string) *QueryParams {
	q.Fields = append(q.Fields, fields...)

	return q
}

// WithSort sets the sort field. Multi-level sorting is not supported by the API.
func (q *QueryParams) WithSort(field string) *QueryParams {
	q.Sort = field

	return q
}

// WithCombinator sets the filter combinator.
func (q *QueryParams) WithCombinator(c Combinator) *QueryParams {
	q.Combinator = c

	return q
}

// Where adds an equality filter.
func (q *QueryParams) Where(field string, value any) *QueryParams {
	q.Filters = append(q.Filters, Filter{Field: field, Operator: OpEqual, Value: value})

	return q
}

// WhereOp adds a comparison filter. Unknown operators are rejected when the
// query is built.
func (q *QueryParams) WhereOp(field string, op Operator, value any) *QueryParams {
	q.Filters = append(q.Filters, Filter{Field: field, Operator: op, Value: value})

	return q
}

// WhereBetween adds a BETWEEN filter with exclusive bounds.
func (q *QueryParams) WhereBetween(field string, lower, upper any) *QueryParams {
	return q.WhereOp(field, OpBetween, fmt.Sprintf("%v,%v", lower, upper))
}

// WithFilters appends filters, e.g. from FiltersFromMap.
func (q *QueryParams) WithFilters(filters ...Filter) *QueryParams {
	q.Filters = append(q.Filters, filters...)

	return q
}

// Encode builds the query string for the named module, starting with "?".
// Values are not escaped here; the transport percent-encodes the full URL.
func (q *QueryParams) Encode(module string) (string, error) {
	if q == nil {
		q = NewQueryParams()
	}

	var b strings.Builder

	b.WriteString("?")

	if len(q.Fields) > 0 {
		fmt.Fprintf(&b, "fields[%s]=%s", module, strings.Join(q.Fields, ","))
	}

	fmt.Fprintf(&b, "&filter[operator]=%s", q.Combinator.normalize())

	for _, filter := range q.Filters {
		err := writeFilter(&b, filter)
		if err != nil {
			return "", err
		}
	}

	if q.Sort != "" {
		fmt.Fprintf(&b, "&sort=-%s", q.Sort)
	}

	return b.String(), nil
}

func writeFilter(b *strings.Builder, filter Filter) error {
	value := formatValue(filter.Value)

	switch filter.Operator {
	case "", OpEqual:
		fmt.Fprintf(b, "&filter[%s][EQ]=%s", filter.Field, value)
	case OpBetween:
		bounds := strings.Split(value, ",")
		if len(bounds) != 2 {
			return NewRequestError(fmt.Sprintf("invalid BETWEEN value for %s", filter.Field), 0, value, ErrInvalidBetween)
		}

		fmt.Fprintf(b, "&filter[%s][GT]=%s&filter[%s][LT]=%s", filter.Field, bounds[0], filter.Field, bounds[1])
	default:
		code, err := filter.Operator.Code()
		if err != nil {
			return err
		}

		fmt.Fprintf(b, "&filter[%s][%s]=%s", filter.Field, code, value)
	}

	return nil
}

// formatValue renders a filter value. Slices become comma-joined lists, which
// is what IN, NOT IN and BETWEEN expect.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}

		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
