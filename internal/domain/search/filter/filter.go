// Package filter expresses pre-filters for vector queries.
package filter

import "fmt"

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 8

// Expression is a conjunction of tag match conditions.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// Must returns the conditions that every hit satisfies.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is an exact tag match.
type Condition struct {
	key   string
	value string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, value: value}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Value returns the tag value to match.
func (c Condition) Value() string { return c.value }
