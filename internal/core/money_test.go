package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"1.005", 101, true},
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000000000", MaxAmountCents, true},
		{"1000000000000.01", 0, false},
		{"200000000000000000", 0, false},
		{"1e30", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, got.Cents)
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Money{"a": Cents(123450), "b": Cents(-5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1234.50,"b":-0.05}`, string(b))

	var m struct {
		N Money `json:"n"`
		S Money `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n": 12.5, "s": "7,25"}`), &m))
	assert.Equal(t, int64(1250), m.N.Cents)
	assert.Equal(t, int64(725), m.S.Cents)

	assert.Error(t, json.Unmarshal([]byte(`{"n": "abc"}`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"n": 200000000000000000}`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"n": -200000000000000000}`), &m))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(Cents(100), Cents(0)))
	assert.Equal(t, 0.0, Percent(Cents(100), Cents(-10)))
	assert.Equal(t, 40.0, Percent(Cents(200000), Cents(500000)))
	assert.Equal(t, 33.33, Percent(Cents(1), Cents(3)))
	assert.Equal(t, 66.67, Percent(Cents(2), Cents(3)))
	assert.Equal(t, -50.0, Percent(Cents(-50), Cents(100)))
}

func TestMoney_Arithmetic(t *testing.T) {
	m := Cents(1000).Add(Cents(250)).Sub(Cents(2000))
	assert.Equal(t, int64(-750), m.Cents)
	assert.True(t, m.IsNegative())
	assert.Equal(t, "-7.50", m.String())
	assert.Equal(t, int64(3000), Cents(1500).Mul(2).Cents)
}
