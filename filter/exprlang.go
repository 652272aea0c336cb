package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/xraph/dispatch/event"
)

// FormatExpr is the format tag for expr-lang boolean expressions.
const FormatExpr = "expr"

// ExprEvaluator evaluates expr-lang expressions against events.
//
// Expressions see two variables: "event" (id, type, tenant_id, timestamp)
// and "data" (the event payload), e.g.:
//
//	data.amount > 100 && event.type == "order.created"
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program // keyed by expression source
}

// NewExprEvaluator creates an expr-lang evaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Matches evaluates the expression against the event.
func (e *ExprEvaluator) Matches(_ context.Context, expression string, evt *event.Info) (bool, error) {
	program, err := e.compile(expression)
	if err != nil {
		return false, fmt.Errorf("compile expression: %w", err)
	}

	out, err := expr.Run(program, env(evt))
	if err != nil {
		return false, fmt.Errorf("run expression: %w", err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return matched, nil
}

// compile returns a compiled program, using the cache for previously-seen
// expressions.
func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if cached, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return cached, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()

	return program, nil
}
