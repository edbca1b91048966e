package worker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(nil, nil, Config{}, zerolog.Nop())

	assert.NotEmpty(t, w.config.WorkerID)
	assert.Equal(t, time.Minute, w.config.TickInterval)
	assert.Equal(t, 15*time.Minute, w.config.ReconcileInterval)
	assert.Equal(t, 5*time.Minute, w.config.ReconcileStaleAfter)
	assert.Equal(t, 24*time.Hour, w.config.ReconcileAlertAfter)
	assert.Equal(t, 8, w.config.OverdueHour)
	assert.Equal(t, 1, w.config.MonthlyDay)
}

func TestMonthlyDue(t *testing.T) {
	w := &Worker{config: Config{MonthlyDay: 3}}

	assert.False(t, w.monthlyDue(time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)), "before the configured day")
	assert.True(t, w.monthlyDue(time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)), "on the configured day")
	assert.True(t, w.monthlyDue(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)), "catches up later in the month")

	w.lastMonthlyRun = "2026-08"
	assert.False(t, w.monthlyDue(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)), "at most once per month")
	assert.True(t, w.monthlyDue(time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)), "next month is due again")
}

func TestOverdueDue(t *testing.T) {
	w := &Worker{config: Config{OverdueHour: 8}}

	assert.False(t, w.overdueDue(time.Date(2026, 8, 28, 7, 59, 0, 0, time.UTC)), "before the configured hour")
	assert.True(t, w.overdueDue(time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)), "on the configured hour")

	w.lastOverdueRun = "2026-08-28"
	assert.False(t, w.overdueDue(time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)), "at most once per day")
	assert.True(t, w.overdueDue(time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)), "next day is due again")
}
