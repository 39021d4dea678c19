package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/gpm/internal/domain"
)

var pkg = domain.PackageID{Author: "octo", Name: "lib"}

type stubResolver struct {
	versions []string
	calls    []int
}

func (s *stubResolver) Resolve(_ context.Context, p domain.PackageID, maxCount int) ([]string, error) {
	s.calls = append(s.calls, maxCount)
	if len(s.versions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, p)
	}
	if maxCount > 0 && len(s.versions) > maxCount {
		return s.versions[:maxCount], nil
	}
	return s.versions, nil
}

// archiveServer serves the given paths and records every request path.
type archiveServer struct {
	*httptest.Server
	mu        sync.Mutex
	requested []string
}

func newArchiveServer(t *testing.T, files map[string]string) *archiveServer {
	t.Helper()
	s := &archiveServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requested = append(s.requested, r.URL.Path)
		s.mu.Unlock()

		assert.Equal(t, "gpm", r.Header.Get("User-Agent"))
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestCandidates(t *testing.T) {
	f := New(&stubResolver{}, 0)

	tests := []struct {
		spec domain.Specifier
		want []string
	}{
		{domain.URLSpec{URL: "https://cdn.example.com/lib.js"}, []string{"https://cdn.example.com/lib.js"}},
		{domain.CommitSpec{Ref: "abc1234"}, []string{"https://github.com/octo/lib/archive/abc1234.zip"}},
		{domain.BranchSpec{Branch: "main"}, []string{"https://github.com/octo/lib/archive/refs/heads/main.zip"}},
		{domain.TagSpec{Version: "1.2.3"}, []string{
			"https://github.com/octo/lib/archive/refs/tags/1.2.3.zip",
			"https://github.com/octo/lib/archive/refs/tags/v1.2.3.zip",
		}},
		{domain.TagSpec{Version: "v1.2.3"}, []string{
			"https://github.com/octo/lib/archive/refs/tags/v1.2.3.zip",
			"https://github.com/octo/lib/archive/refs/tags/1.2.3.zip",
		}},
		{domain.LatestSpec{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.spec.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, f.Candidates(pkg, tt.spec))
		})
	}
}

func TestStagingPath(t *testing.T) {
	root := filepath.Join("install", ".tmp")
	assert.Equal(t, filepath.Join(root, "octo", "lib.zip"), StagingPath(root, pkg, domain.TagSpec{Version: "1.0"}))
	assert.Equal(t, filepath.Join(root, "octo", "lib.min.js"),
		StagingPath(root, pkg, domain.URLSpec{URL: "https://cdn.example.com/dist/lib.min.js?x=1"}))
	assert.Equal(t, filepath.Join(root, "octo", "lib.zip"),
		StagingPath(root, pkg, domain.URLSpec{URL: "https://cdn.example.com/"}))
}

func TestFetch_Primary(t *testing.T) {
	srv := newArchiveServer(t, map[string]string{
		"/octo/lib/archive/refs/tags/1.2.3.zip": "primary",
	})
	root := t.TempDir()

	f := New(&stubResolver{}, 0, WithArchiveURL(srv.URL))
	staged, err := f.Fetch(context.Background(), pkg, domain.TagSpec{Version: "1.2.3"}, root)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/octo/lib/archive/refs/tags/1.2.3.zip", staged.URL)
	assert.Equal(t, filepath.Join(root, "octo", "lib.zip"), staged.Path)
	assert.EqualValues(t, len("primary"), staged.Size)

	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "primary", string(data))
	assert.Len(t, srv.requested, 1)
}

func TestFetch_AlternateTagURL(t *testing.T) {
	srv := newArchiveServer(t, map[string]string{
		"/octo/lib/archive/refs/tags/v1.2.3.zip": "alternate",
	})

	f := New(&stubResolver{}, 0, WithArchiveURL(srv.URL))
	staged, err := f.Fetch(context.Background(), pkg, domain.TagSpec{Version: "1.2.3"}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/octo/lib/archive/refs/tags/v1.2.3.zip", staged.URL)
	assert.Equal(t, []string{
		"/octo/lib/archive/refs/tags/1.2.3.zip",
		"/octo/lib/archive/refs/tags/v1.2.3.zip",
	}, srv.requested)
}

func TestFetch_ReplacesStaleStagedFile(t *testing.T) {
	srv := newArchiveServer(t, map[string]string{
		"/octo/lib/archive/refs/heads/main.zip": "fresh",
	})
	root := t.TempDir()
	stale := filepath.Join(root, "octo", "lib.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("stale and much longer"), 0644))

	var progress bytes.Buffer
	f := New(&stubResolver{}, 0, WithArchiveURL(srv.URL), WithProgress(&progress))
	staged, err := f.Fetch(context.Background(), pkg, domain.BranchSpec{Branch: "main"}, root)
	require.NoError(t, err)

	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestFetch_LatestResolvesOne(t *testing.T) {
	srv := newArchiveServer(t, map[string]string{
		"/octo/lib/archive/abc1234.zip": "commit",
	})
	res := &stubResolver{versions: []string{"#abc1234", "#0000000"}}

	f := New(res, 0, WithArchiveURL(srv.URL))
	staged, err := f.Fetch(context.Background(), pkg, domain.LatestSpec{}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.calls)
	assert.Equal(t, domain.CommitSpec{Ref: "abc1234"}, staged.Specifier)
}

func TestFetch_LatestNothingFound(t *testing.T) {
	srv := newArchiveServer(t, nil)

	f := New(&stubResolver{}, 0, WithArchiveURL(srv.URL))
	_, err := f.Fetch(context.Background(), pkg, domain.LatestSpec{}, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
	assert.Empty(t, srv.requested)
}

func TestFetch_SuggestsVersions(t *testing.T) {
	srv := newArchiveServer(t, nil)
	res := &stubResolver{versions: []string{"3.0.0", "2.0.0", "1.0.0", "0.9.0", "0.8.0", "0.7.0"}}

	f := New(res, 0, WithArchiveURL(srv.URL))
	_, err := f.Fetch(context.Background(), pkg, domain.TagSpec{Version: "9.9.9"}, t.TempDir())

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, []string{"3.0.0", "2.0.0", "1.0.0", "0.9.0", "0.8.0"}, dlErr.Suggestions)
	assert.Len(t, dlErr.Tried, 2)
	assert.Equal(t, []int{5}, res.calls)
}

func TestFetch_UnresolvablePackage(t *testing.T) {
	srv := newArchiveServer(t, nil)

	f := New(&stubResolver{}, 0, WithArchiveURL(srv.URL))
	_, err := f.Fetch(context.Background(), pkg, domain.TagSpec{Version: "1.0.0"}, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestFetch_LiteralURL(t *testing.T) {
	srv := newArchiveServer(t, map[string]string{
		"/dist/lib.min.js": "console.log(1)",
	})
	root := t.TempDir()

	f := New(&stubResolver{}, 0)
	staged, err := f.Fetch(context.Background(), pkg, domain.URLSpec{URL: srv.URL + "/dist/lib.min.js"}, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "octo", "lib.min.js"), staged.Path)
	assert.Equal(t, srv.URL+"/dist/lib.min.js", staged.URL)
}
