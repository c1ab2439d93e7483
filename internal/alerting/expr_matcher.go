package alerting

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// ExprMatcher compiles and evaluates expr-lang expressions against log records.
// The environment exposes level, source and message as strings.
type ExprMatcher struct {
	expression string
	program    *vm.Program
}

// NewExprMatcher creates a new ExprMatcher for the given expression.
func NewExprMatcher(expression string) (*ExprMatcher, error) {
	// Note: expr-lang has built-in operators: contains, startsWith, endsWith, matches
	// Syntax: message contains "timeout" (not contains(message, "timeout"))
	program, err := expr.Compile(expression,
		expr.Env(recordEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return &ExprMatcher{expression: expression, program: program}, nil
}

// recordEnv is the evaluation environment; field tags name the variables.
type recordEnv struct {
	Level   string `expr:"level"`
	Source  string `expr:"source"`
	Message string `expr:"message"`
}

// Match evaluates the expression against a record.
func (m *ExprMatcher) Match(rec *models.LogRecord) (bool, error) {
	result, err := expr.Run(m.program, recordEnv{
		Level:   string(rec.Level),
		Source:  rec.Source,
		Message: rec.Message,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return bool: got %T", result)
	}
	return matched, nil
}

// Expression returns the original expression string.
func (m *ExprMatcher) Expression() string {
	return m.expression
}
