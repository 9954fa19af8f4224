package memsource

import (
	"strings"

	"github.com/goliatone/go-datagrid/pkg/rules"
)

// operators maps filter operators to rule expressions over lhs (the record
// value) and rhs (the filter value).
var operators = map[string]string{
	"eq":       "lhs == rhs",
	"ne":       "lhs != rhs",
	"gt":       "lhs > rhs",
	"gte":      "lhs >= rhs",
	"lt":       "lhs < rhs",
	"lte":      "lhs <= rhs",
	"contains": "lower(lhs) contains lower(rhs)",
	"ilike":    "lower(lhs) contains lower(rhs)",
	"in":       "lhs in rhs",
}

// match evaluates one condition. Both sides compare as numbers when both
// parse as numbers, as strings otherwise.
func (s *Source) match(value any, condition Condition) (bool, error) {
	expression := operators[condition.Operator]
	facts := map[string]any{}
	switch condition.Operator {
	case "in":
		facts["lhs"] = text(value)
		facts["rhs"] = splitList(condition.Value)
	case "contains", "ilike":
		facts["lhs"] = text(value)
		facts["rhs"] = strings.Trim(condition.Value, "%")
	default:
		lhs, lok := number(value)
		rhs, rok := number(condition.Value)
		if lok && rok {
			facts["lhs"], facts["rhs"] = lhs, rhs
		} else {
			facts["lhs"], facts["rhs"] = text(value), condition.Value
		}
	}
	return s.runner.EvaluateBool(rules.RuleContext{Snapshot: facts, ScopeName: "filter:" + condition.Field}, expression)
}

func splitList(raw string) []any {
	var out []any
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
