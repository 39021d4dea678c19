package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/teamcutter/gpm/internal/domain"
)

const (
	ManifestName          = "gpm.json"
	AlternateManifestName = ".gpm.json"
	indent                = "    "
)

// Locate turns a --path argument into a manifest file path.
func Locate(path string) (string, error) {
	if path == "" {
		for _, name := range []string{ManifestName, AlternateManifestName} {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				return name, nil
			}
		}
		return "", fmt.Errorf("%w: no %s in current directory", domain.ErrManifestNotFound, ManifestName)
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return filepath.Join(path, ManifestName), nil
	}
	return path, nil
}

// Create writes an empty manifest, refusing to touch an existing file.
func Create(path string) (string, error) {
	target := createTarget(path)

	if _, err := os.Stat(target); err == nil {
		return target, fmt.Errorf("%w: %s", domain.ErrManifestExists, target)
	}

	if err := New(target).Save(domain.NewManifest()); err != nil {
		return target, err
	}
	return target, nil
}

func createTarget(path string) string {
	if path == "" {
		return ManifestName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, ManifestName)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return path
	}
	return filepath.Join(path, ManifestName)
}

type ManifestState struct {
	mu   sync.Mutex
	path string
}

func New(path string) *ManifestState {
	return &ManifestState{path: path}
}

func (m *ManifestState) Path() string {
	return m.path
}

func (m *ManifestState) Load() (*domain.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *ManifestState) load() (*domain.Manifest, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, m.path)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", m.path, err)
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrManifestInvalid, m.path, err)
	}
	return &manifest, nil
}

func (m *ManifestState) Save(manifest *domain.Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flush(manifest)
}

// Set records spec for pkg, keeping the entry's position if it exists.
func (m *ManifestState) Set(pkg, spec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, err := m.load()
	if err != nil {
		return err
	}
	manifest.Dependencies.Set(pkg, spec)
	return m.flush(manifest)
}

// Remove drops pkg from the manifest. Removing an absent entry still
// rewrites the file.
func (m *ManifestState) Remove(pkg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, err := m.load()
	if err != nil {
		return err
	}
	manifest.Dependencies.Delete(pkg)
	return m.flush(manifest)
}

func (m *ManifestState) flush(manifest *domain.Manifest) error {
	raw, err := manifest.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", domain.ErrWrite, m.path, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", indent); err != nil {
		return fmt.Errorf("%w: encoding %s: %v", domain.ErrWrite, m.path, err)
	}
	out.WriteByte('\n')

	if err := writeFileAtomic(m.path, out.Bytes()); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrWrite, m.path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
