package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nimbuscrm/backend/pkg/constants"
)

func TestRecommendStage(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	paid := now.AddDate(0, 0, -3)

	tests := []struct {
		name      string
		paidDate  *time.Time
		dueDate   time.Time
		todosDone bool
		want      string
	}{
		{
			name:     "paid always wins",
			paidDate: &paid,
			dueDate:  now.AddDate(0, 0, -30),
			want:     constants.PaymentStagePaid,
		},
		{
			name:      "paid wins even with open todos",
			paidDate:  &paid,
			dueDate:   now.AddDate(0, 2, 0),
			todosDone: false,
			want:      constants.PaymentStagePaid,
		},
		{
			name:      "past due and todos done is overdue",
			dueDate:   now.AddDate(0, 0, -1),
			todosDone: true,
			want:      constants.PaymentStageOverdue,
		},
		{
			name:      "past due with open todos stays due_soon",
			dueDate:   now.AddDate(0, 0, -5),
			todosDone: false,
			want:      constants.PaymentStageDueSoon,
		},
		{
			name:      "due inside the window",
			dueDate:   now.AddDate(0, 0, 7),
			todosDone: true,
			want:      constants.PaymentStageDueSoon,
		},
		{
			name:      "due exactly at the window edge",
			dueDate:   now.Add(constants.DueSoonWindowDays * 24 * time.Hour),
			todosDone: true,
			want:      constants.PaymentStageDueSoon,
		},
		{
			name:      "due beyond the window",
			dueDate:   now.AddDate(0, 2, 0),
			todosDone: true,
			want:      constants.PaymentStageScheduled,
		},
		{
			name:    "far future with open todos",
			dueDate: now.AddDate(1, 0, 0),
			want:    constants.PaymentStageScheduled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendStage(tt.paidDate, tt.dueDate, tt.todosDone, now)
			assert.Equal(t, tt.want, got)
		})
	}
}
