package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk(t *testing.T) {
	r := Ok(42)

	assert.True(t, r.IsOk())
	assert.Empty(t, r.Reason())
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, r.ValueOr(7))
}

func TestErr(t *testing.T) {
	r := Err("provider unavailable", []string{})

	assert.False(t, r.IsOk())
	assert.Equal(t, "provider unavailable", r.Reason())
	assert.Equal(t, []string{"x"}, r.ValueOr([]string{"x"}))
	assert.Equal(t, []string{}, r.Fallback())
}

func TestMarshalJSON(t *testing.T) {
	type summary struct {
		Total int `json:"total"`
	}

	b, err := json.Marshal(Ok(summary{Total: 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"total":3}}`, string(b))

	b, err = json.Marshal(Err("failed to fetch", summary{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"total":0},"error":"failed to fetch"}`, string(b))
}

func TestMarshalJSON_NilPointerIsNull(t *testing.T) {
	var p *int
	b, err := json.Marshal(Ok(p))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null}`, string(b))
}

func TestUnmarshalJSON(t *testing.T) {
	var r Result[int]
	require.NoError(t, json.Unmarshal([]byte(`{"data":0,"error":"nope"}`), &r))
	assert.False(t, r.IsOk())
	assert.Equal(t, "nope", r.Reason())

	require.NoError(t, json.Unmarshal([]byte(`{"data":5}`), &r))
	assert.True(t, r.IsOk())
	assert.Equal(t, 5, r.ValueOr(0))
}

func TestMap(t *testing.T) {
	double := func(n int) int { return n * 2 }

	assert.Equal(t, 4, Map(Ok(2), double).ValueOr(0))

	failed := Map(Err("down", 1), double)
	assert.False(t, failed.IsOk())
	assert.Equal(t, "down", failed.Reason())
	assert.Equal(t, 2, failed.Fallback())
}
