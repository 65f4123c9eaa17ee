package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNumber(t *testing.T) {
	e := NewEngine()
	env := map[string]interface{}{"base": 100.0, "qty": 3}

	tests := []struct {
		expr     string
		expected float64
	}{
		{"base * 0.1", 10.0},
		{"base + 25", 125.0},
		{"base * qty", 300.0},
		{"-15", -15.0},
		{"(base + 50) / 2", 75.0},
	}

	for _, tt := range tests {
		got, err := e.EvaluateNumber(tt.expr, env)
		require.NoError(t, err, tt.expr)
		assert.InDelta(t, tt.expected, got, 1e-9, tt.expr)
	}
}

func TestEvaluateNumberErrors(t *testing.T) {
	e := NewEngine()

	_, err := e.EvaluateNumber(`"not a number"`, nil)
	assert.Error(t, err)

	_, err = e.EvaluateNumber("base *", map[string]interface{}{"base": 1.0})
	assert.Error(t, err)

	// Division by zero yields +Inf, which is rejected.
	_, err = e.EvaluateNumber("1.0 / 0.0", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	e := NewEngine()
	assert.NoError(t, e.Validate("base * 1.2 + 5"))
	assert.Error(t, e.Validate("base ++* 2"))
}

func TestProgramCacheReuse(t *testing.T) {
	e := NewEngine()

	_, err := e.EvaluateNumber("base * 2", map[string]interface{}{"base": 2.0})
	require.NoError(t, err)

	// Second run hits the cache and still honors the new environment.
	got, err := e.EvaluateNumber("base * 2", map[string]interface{}{"base": 5.0})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}
