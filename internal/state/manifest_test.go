package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/gpm/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `{"dependencies":{"b/two":"#abc1234","a/one":"1.0.0","c/three":"https://example.com/x/y.zip"}}`)

	s := New(path)
	m, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(m))

	again, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"b/two", "a/one", "c/three"}, again.Dependencies.Keys())
	for k, v := range m.Dependencies.All() {
		got, ok := again.Dependencies.Get(k)
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
    "dependencies": {
        "b/two": "#abc1234",
        "a/one": "1.0.0",
        "c/three": "https://example.com/x/y.zip"
    }
}
`, string(data))
}

func TestSet_KeepsURLCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `{"dependencies":{}}`)

	require.NoError(t, New(path).Set("a/one", "https://example.com/dl?id=1&fmt=<zip>"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"https://example.com/dl?id=1&fmt=<zip>"`)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing.json")).Load()
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"dependencies":`)
	_, err = New(bad).Load()
	assert.ErrorIs(t, err, domain.ErrManifestInvalid)

	noDeps := filepath.Join(dir, "nodeps.json")
	writeFile(t, noDeps, `{"name":"x"}`)
	_, err = New(noDeps).Load()
	assert.ErrorIs(t, err, domain.ErrManifestInvalid)

	wrongType := filepath.Join(dir, "wrong.json")
	writeFile(t, wrongType, `{"dependencies":"a/b"}`)
	_, err = New(wrongType).Load()
	assert.ErrorIs(t, err, domain.ErrManifestInvalid)
}

func TestSetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `{"name":"keep-me","dependencies":{"a/one":"1.0.0"}}`)

	s := New(path)
	require.NoError(t, s.Set("b/two", "dev-main"))
	require.NoError(t, s.Set("a/one", "2.0.0"))

	m, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "b/two"}, m.Dependencies.Keys())
	v, _ := m.Dependencies.Get("a/one")
	assert.Equal(t, "2.0.0", v)

	require.NoError(t, s.Remove("a/one"))
	require.NoError(t, s.Remove("never/there"))

	m, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b/two"}, m.Dependencies.Keys())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "keep-me"`)
}

func TestSet_MissingManifest(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), ManifestName)).Set("a/b", "1.0")
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	path, err := Create(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"dependencies\": {}\n}\n", string(data))

	_, err = Create(dir)
	assert.ErrorIs(t, err, domain.ErrManifestExists)

	custom := filepath.Join(dir, "nested", "deps.json")
	path, err = Create(custom)
	require.NoError(t, err)
	assert.Equal(t, custom, path)
	assert.FileExists(t, custom)

	sub := filepath.Join(dir, "newdir")
	path, err = Create(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, ManifestName), path)
}

func TestCreate_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `{"dependencies":{"a/b":"1"}}`)

	_, err := Create(path)
	assert.ErrorIs(t, err, domain.ErrManifestExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"dependencies":{"a/b":"1"}}`, string(data))
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Locate("")
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)

	writeFile(t, filepath.Join(dir, AlternateManifestName), `{"dependencies":{}}`)
	path, err := Locate("")
	require.NoError(t, err)
	assert.Equal(t, AlternateManifestName, path)

	writeFile(t, filepath.Join(dir, ManifestName), `{"dependencies":{}}`)
	path, err = Locate("")
	require.NoError(t, err)
	assert.Equal(t, ManifestName, path)

	sub := filepath.Join(dir, "project")
	require.NoError(t, os.Mkdir(sub, 0755))
	path, err = Locate(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, ManifestName), path)

	file := filepath.Join(dir, "other.json")
	writeFile(t, file, `{"dependencies":{}}`)
	path, err = Locate(file)
	require.NoError(t, err)
	assert.Equal(t, file, path)
}
