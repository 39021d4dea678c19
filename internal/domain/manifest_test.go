package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RoundTripKeepsOrder(t *testing.T) {
	input := `{"name":"demo","dependencies":{"zeta/last":"1.0.0","alpha/first":"#abc1234","mid/dle":"https://example.com/a/b.zip"},"private":true}`

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(input), &m))

	assert.Equal(t, []string{"zeta/last", "alpha/first", "mid/dle"}, m.Dependencies.Keys())

	out, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.Equal(t, input, string(out))
}

func TestManifest_LiteralSlashes(t *testing.T) {
	m := NewManifest()
	m.Dependencies.Set("a/b", "https://host/x?y=1&z=<2>")

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"dependencies":{"a/b":"https://host/x?y=1&z=<2>"}}`, string(out))
}

func TestManifest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing dependencies", `{"name":"x"}`},
		{"dependencies is a list", `{"dependencies":["a/b"]}`},
		{"dependencies is null", `{"dependencies":null}`},
		{"non-string version", `{"dependencies":{"a/b":1}}`},
		{"not an object", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Manifest
			assert.Error(t, json.Unmarshal([]byte(tt.input), &m))
		})
	}
}

func TestDependencies_SetDelete(t *testing.T) {
	d := NewDependencies()
	d.Set("a/one", "1")
	d.Set("b/two", "2")
	d.Set("a/one", "3")

	assert.Equal(t, []string{"a/one", "b/two"}, d.Keys())
	v, ok := d.Get("a/one")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	assert.True(t, d.Delete("a/one"))
	assert.False(t, d.Delete("a/one"))
	assert.Equal(t, []string{"b/two"}, d.Keys())
	assert.Equal(t, 1, d.Len())

	var seen []string
	for k, v := range d.All() {
		seen = append(seen, k+"="+v)
	}
	assert.Equal(t, []string{"b/two=2"}, seen)
}
