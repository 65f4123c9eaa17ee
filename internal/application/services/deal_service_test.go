package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuscrm/backend/pkg/constants"
)

func TestValidateStageTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"forward one step", constants.DealStageQualification, constants.DealStageProposal, false},
		{"forward skipping a step", constants.DealStageQualification, constants.DealStageNegotiation, false},
		{"backward", constants.DealStageNegotiation, constants.DealStageProposal, true},
		{"same stage", constants.DealStageProposal, constants.DealStageProposal, true},
		{"open to won", constants.DealStageQualification, constants.DealStageWon, false},
		{"open to lost", constants.DealStageNegotiation, constants.DealStageLost, false},
		{"won is immutable", constants.DealStageWon, constants.DealStageProposal, true},
		{"lost is immutable", constants.DealStageLost, constants.DealStageWon, true},
		{"unknown target", constants.DealStageProposal, "archived", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStageTransition(tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitInstallments(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		n     int
		want  []float64
	}{
		{"even split", 3000, 3, []float64{1000, 1000, 1000}},
		{"remainder folds into last", 100, 3, []float64{33.33, 33.33, 33.34}},
		{"single installment", 999.99, 1, []float64{999.99}},
		{"sub-cent remainder", 10, 3, []float64{3.33, 3.33, 3.34}},
		{"twelve monthly", 1200.50, 12, nil}, // verified by sum below
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitInstallments(tt.total, tt.n)
			require.Len(t, got, tt.n)

			var sum float64
			for _, a := range got {
				sum += a
			}
			assert.InDelta(t, tt.total, sum, 0.001, "installments must sum to the total")

			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
			// every amount is a whole number of cents
			for _, a := range got {
				cents := a * 100
				assert.InDelta(t, math.Round(cents), cents, 1e-9)
			}
		})
	}
}
