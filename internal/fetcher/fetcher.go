package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/gpm/internal/domain"
	"github.com/teamcutter/gpm/internal/fsutil"
)

const (
	DefaultArchiveURL = "https://github.com"
	ArchiveExt        = ".zip"
	suggestionCount   = 5
)

type HTTPFetcher struct {
	client     *http.Client
	resolver   domain.Resolver
	logger     *log.Logger
	archiveURL string
	userAgent  string
	progress   io.Writer
}

type Option func(*HTTPFetcher)

func WithArchiveURL(base string) Option {
	return func(f *HTTPFetcher) {
		f.archiveURL = strings.TrimRight(base, "/")
	}
}

func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithProgress draws download progress on w. A nil writer disables it.
func WithProgress(w io.Writer) Option {
	return func(f *HTTPFetcher) {
		f.progress = w
	}
}

func WithLogger(l *log.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = l
	}
}

func New(resolver domain.Resolver, timeout time.Duration, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:     &http.Client{Timeout: timeout},
		resolver:   resolver,
		logger:     log.New(io.Discard),
		archiveURL: DefaultArchiveURL,
		userAgent:  "gpm",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Candidates lists the download URLs for spec in the order they are tried.
func (f *HTTPFetcher) Candidates(pkg domain.PackageID, spec domain.Specifier) []string {
	base := fmt.Sprintf("%s/%s/%s/archive", f.archiveURL, pkg.Author, pkg.Name)

	switch s := spec.(type) {
	case domain.URLSpec:
		return []string{s.URL}
	case domain.CommitSpec:
		return []string{base + "/" + s.Ref + ArchiveExt}
	case domain.BranchSpec:
		return []string{base + "/refs/heads/" + s.Branch + ArchiveExt}
	case domain.TagSpec:
		alt := "v" + s.Version
		if strings.HasPrefix(s.Version, "v") || strings.HasPrefix(s.Version, "V") {
			alt = s.Version[1:]
		}
		return []string{
			base + "/refs/tags/" + s.Version + ArchiveExt,
			base + "/refs/tags/" + alt + ArchiveExt,
		}
	default:
		return nil
	}
}

// StagingPath is where the payload for pkg is written before install.
func StagingPath(stagingRoot string, pkg domain.PackageID, spec domain.Specifier) string {
	dir := filepath.Join(stagingRoot, pkg.Author)
	if s, ok := spec.(domain.URLSpec); ok {
		if name := urlFileName(s.URL); name != "" {
			return filepath.Join(dir, name)
		}
	}
	return filepath.Join(dir, pkg.Name+ArchiveExt)
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pkg domain.PackageID, spec domain.Specifier, stagingRoot string) (*domain.Staged, error) {
	if _, ok := spec.(domain.LatestSpec); ok {
		versions, err := f.resolver.Resolve(ctx, pkg, 1)
		if err != nil {
			return nil, err
		}
		spec = domain.ParseSpecifier(versions[0])
		f.logger.Debug("resolved latest version", "package", pkg, "version", spec)
	}

	candidates := f.Candidates(pkg, spec)

	var (
		body    io.ReadCloser
		size    int64
		usedURL string
	)
	for _, u := range candidates {
		rc, n, err := f.open(ctx, u)
		if err != nil {
			f.logger.Debug("download candidate failed", "package", pkg, "url", u, "err", err)
			continue
		}
		body, size, usedURL = rc, n, u
		break
	}

	if body == nil {
		return nil, f.notFound(ctx, pkg, spec, candidates)
	}
	defer body.Close()

	dst := StagingPath(stagingRoot, pkg, spec)
	n, err := f.stage(body, size, dst, pkg)
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrWrite, dst, err)
	}

	return &domain.Staged{
		Package:   pkg,
		Specifier: spec,
		URL:       usedURL,
		Path:      dst,
		Size:      n,
	}, nil
}

func (f *HTTPFetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}

func (f *HTTPFetcher) notFound(ctx context.Context, pkg domain.PackageID, spec domain.Specifier, tried []string) error {
	versions, err := f.resolver.Resolve(ctx, pkg, suggestionCount)
	if err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrPackageNotFound, pkg, err)
	}

	return &domain.DownloadError{
		Package:     pkg,
		Specifier:   spec,
		Tried:       tried,
		Suggestions: versions,
	}
}

func (f *HTTPFetcher) stage(body io.Reader, size int64, dst string, pkg domain.PackageID) (int64, error) {
	if err := fsutil.EnsureExists(filepath.Dir(dst)); err != nil {
		return 0, err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}

	file, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var w io.Writer = file
	if f.progress != nil {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(f.progress),
			progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", pkg)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(file, bar)
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, err
	}
	return n, file.Sync()
}

func urlFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
