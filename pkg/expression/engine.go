// Package expression evaluates the arithmetic cost-modifier expressions
// attached to device template options, e.g. "base * 0.1 + 25". It wraps
// expr-lang/expr with a compiled-program cache keyed by expression text.
package expression

import (
	"fmt"
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine compiles and runs cost expressions.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{programCache: make(map[string]*vm.Program)}
}

// Evaluate compiles (if needed) and runs an expression against the given environment.
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// EvaluateNumber runs an expression and coerces the result to float64.
func (e *Engine) EvaluateNumber(expression string, env map[string]interface{}) (float64, error) {
	out, err := e.Evaluate(expression, env)
	if err != nil {
		return 0, err
	}

	var n float64
	switch v := out.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return 0, fmt.Errorf("expression %q returned non-numeric result %T", expression, out)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("expression %q returned non-finite result", expression)
	}
	return n, nil
}

// Validate checks expression syntax without running it.
func (e *Engine) Validate(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}
	e.programCache[expression] = program
	return program, nil
}
