package jsonval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalPreservesKeyOrder(t *testing.T) {
	v := mustParse(t, `{"z":1,"m":2,"a":3}`)
	require.Equal(t, KindObject, v.Kind)
	keys := make([]string, len(v.Object))
	for i, m := range v.Object {
		keys[i] = m.Key
	}
	assert.Equal(t, []string{"z", "m", "a"}, keys)
}

func TestMarshalRoundTrip(t *testing.T) {
	raw := `{"name":"Flu","tags":["a","b"],"score":0.9,"active":true,"extra":null}`
	v := mustParse(t, raw)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	// Key order survives re-emission byte for byte.
	assert.Equal(t, raw, string(out))
}

func TestNumberKeepsLiteralForm(t *testing.T) {
	v := mustParse(t, `0.30`)
	require.Equal(t, KindNumber, v.Kind)
	assert.Equal(t, "0.30", v.Number)

	f, ok := v.Float()
	require.True(t, ok)
	assert.InDelta(t, 0.3, f, 1e-9)
}

func TestField(t *testing.T) {
	v := mustParse(t, `{"name":"x","dup":1,"dup":2}`)
	name, ok := v.Field("name")
	require.True(t, ok)
	assert.Equal(t, "x", name.Str)

	// First occurrence wins.
	dup, ok := v.Field("dup")
	require.True(t, ok)
	assert.Equal(t, "1", dup.Number)

	_, ok = v.Field("missing")
	assert.False(t, ok)

	_, ok = String("not an object").Field("name")
	assert.False(t, ok)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Null().IsEmpty())
	assert.True(t, String("").IsEmpty())
	assert.True(t, mustParse(t, `[]`).IsEmpty())
	assert.True(t, mustParse(t, `{}`).IsEmpty())
	assert.False(t, Boolean(false).IsEmpty())
	assert.False(t, mustParse(t, `0`).IsEmpty())
	assert.False(t, String("x").IsEmpty())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(mustParse(t, `{"a":1,"b":2}`), mustParse(t, `{"b":2,"a":1}`)), "object equality ignores order")
	assert.True(t, Equal(mustParse(t, `1.0`), mustParse(t, `1`)), "numbers compare numerically")
	assert.False(t, Equal(mustParse(t, `[1,2]`), mustParse(t, `[2,1]`)), "array order matters")
	assert.False(t, Equal(String("1"), mustParse(t, `1`)), "string and number differ")
	assert.True(t, Equal(Value{}, Null()), "zero value is null")
	assert.False(t, Equal(mustParse(t, `{"a":1}`), mustParse(t, `{"a":1,"b":2}`)))
}
