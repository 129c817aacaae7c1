package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_JSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentDashboard})

	logger.WithComponent(ComponentCache).Info("hit", FieldUserID, "u1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cache", rec[FieldComponent])
	assert.Equal(t, "u1", rec[FieldUserID])
	assert.Equal(t, "hit", rec["msg"])
}

func TestLogFields_ToSliceSorted(t *testing.T) {
	fields := NewFields().
		WithUser("u1").
		WithOperation(OpReport).
		WithError(errors.New("boom")).
		WithError(nil).
		WithPeriod(2024, 2)

	assert.Equal(t, []any{
		FieldError, "boom",
		FieldMonth, 2,
		FieldOperation, OpReport,
		FieldUserID, "u1",
		FieldYear, 2024,
	}, fields.ToSlice())
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())

	logger := Discard().WithComponent(ComponentHTTP)
	ctx := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
