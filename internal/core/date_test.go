package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{1900, 2, 28},
		{2000, 2, 29},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysIn(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestMonthRange_ContainsIsInclusive(t *testing.T) {
	r := MonthRange(2024, 3)

	assert.True(t, r.Contains(NewDate(2024, 3, 1)))
	assert.True(t, r.Contains(NewDate(2024, 3, 31)))
	assert.False(t, r.Contains(NewDate(2024, 2, 29)))
	assert.False(t, r.Contains(NewDate(2024, 4, 1)))
	require.NoError(t, r.Validate())
	assert.Error(t, DateRange{From: r.To, To: r.From}.Validate())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 3, 15), d)

	d, err = ParseDate("2024-03-15T23:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 3, 15), d)

	_, err = ParseDate("15/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-05"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05"`), &d))
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, 5, d.Day())
}
