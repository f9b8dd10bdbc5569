// Package logic composes XLSForm boolean expressions over the survey.
// The produced strings are a fixed external contract consumed by the
// data-collection runtime: ${name} interpolates another question's
// value, "." refers to the current question, string literals are
// single-quoted, and selected(${name}, 'value') tests choice
// membership. Output must stay byte-for-byte stable.
package logic

import (
	"fmt"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
)

// Operator is one comparison or membership operator offered by the
// builder. The set depends on the referenced question's type.
type Operator string

const (
	OpSelected    Operator = "selected"
	OpNotSelected Operator = "not-selected"
	OpEq          Operator = "="
	OpNeq         Operator = "!="
	OpGt          Operator = ">"
	OpLt          Operator = "<"
	OpGte         Operator = ">="
	OpLte         Operator = "<="
)

var selectOperators = []Operator{OpSelected, OpNotSelected}
var comparisonOperators = []Operator{OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte}

// ListReferenceable returns every question usable as the left-hand side
// of a condition: all questions except the one being edited and except
// structural markers and notes. Survey order is preserved.
func ListReferenceable(survey []form.Question, excludeName string) []form.Question {
	var out []form.Question
	for _, q := range survey {
		if q.Name == excludeName {
			continue
		}
		if q.Type.IsStructural() || q.Type == form.TypeNote {
			continue
		}
		out = append(out, q)
	}
	return out
}

// OperatorsFor returns the operators applicable to a question:
// membership tests for select types, comparisons for everything else.
func OperatorsFor(q form.Question) []Operator {
	if q.Type.IsSelect() {
		return append([]Operator(nil), selectOperators...)
	}
	return append([]Operator(nil), comparisonOperators...)
}

// ComposeCondition builds one boolean condition referencing q.
//
// Membership operators produce selected(${name}, 'value'), wrapped in
// not(...) for the negative form. Comparison operators produce
// ${name} op literal, quoting the literal unless the question's type is
// numeric. When the question carries a choice list the value must be
// one of its choice names.
func ComposeCondition(q form.Question, op Operator, value string) (string, error) {
	if !operatorAllowed(q, op) {
		return "", fmt.Errorf("%w: operator %q not applicable to type %s", domain.ErrValidation, op, q.Type)
	}
	if len(q.Choices) > 0 && !hasChoice(q, value) {
		return "", fmt.Errorf("%w: %q is not a choice of question %s", domain.ErrValidation, value, q.Name)
	}

	switch op {
	case OpSelected:
		return fmt.Sprintf("selected(${%s}, '%s')", q.Name, value), nil
	case OpNotSelected:
		return fmt.Sprintf("not(selected(${%s}, '%s'))", q.Name, value), nil
	default:
		if q.Type.IsNumeric() {
			return fmt.Sprintf("${%s} %s %s", q.Name, op, value), nil
		}
		return fmt.Sprintf("${%s} %s '%s'", q.Name, op, value), nil
	}
}

// AppendCondition conjoins a new condition onto an existing expression.
// Conjunction is the only combinator the builder produces; disjunction
// is left to free-text editing.
func AppendCondition(existing, condition string) string {
	if existing == "" {
		return condition
	}
	return existing + " and " + condition
}

func operatorAllowed(q form.Question, op Operator) bool {
	for _, candidate := range OperatorsFor(q) {
		if candidate == op {
			return true
		}
	}
	return false
}

func hasChoice(q form.Question, value string) bool {
	for _, c := range q.Choices {
		if c.Name == value {
			return true
		}
	}
	return false
}
