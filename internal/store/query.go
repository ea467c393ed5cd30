package store

// LogicalOperator joins the parts of a filter.
type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

// ConditionOperator compares one column against a value.
type ConditionOperator string

const (
	// Equal is exact equality.
	Equal ConditionOperator = "eq"
	// NotEqual is exact inequality.
	NotEqual ConditionOperator = "neq"
	// EqualCI is case- and accent-insensitive equality, used for name
	// attribute matching.
	EqualCI ConditionOperator = "eq_ci"
	// In matches any of Values.
	In ConditionOperator = "in"
	// IsNull matches NULL columns; Value is ignored.
	IsNull ConditionOperator = "null"
	// NotNull matches non-NULL columns; Value is ignored.
	NotNull ConditionOperator = "not_null"
)

// Condition is a single column comparison.
type Condition struct {
	Column   string
	Operator ConditionOperator
	Value    interface{}
	Values   []interface{}
}

// Filter is a boolean combination of conditions and nested filters. The
// duplicate matcher builds an OR of AND-groups with it.
type Filter struct {
	Operator   LogicalOperator
	Conditions []Condition
	Filters    []Filter
}

// NewFilter builds a filter joining the given conditions.
func NewFilter(op LogicalOperator, conditions ...Condition) Filter {
	return Filter{Operator: op, Conditions: conditions}
}

// Empty reports whether the filter constrains nothing.
func (f Filter) Empty() bool {
	return len(f.Conditions) == 0 && len(f.Filters) == 0
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a filtered read over one entity type.
type Query struct {
	Type    string
	Columns []string
	Filter  *Filter
	OrderBy []Order
	Limit   int
}
