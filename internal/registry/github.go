package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teamcutter/gpm/internal/domain"
)

const (
	DefaultAPIURL    = "https://api.github.com"
	DefaultUserAgent = "gpm"

	perPage         = 100
	maxResponseSize = 10 << 20
)

// RateLimitError reports an exhausted GitHub API quota.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d exceeded (resets at %s)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

type githubTag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// GitHub lists tags and commits of a repository through the REST API.
type GitHub struct {
	client    *http.Client
	baseURL   string
	userAgent string
	token     string
	cache     domain.Cache
}

type Option func(*GitHub)

func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHub) {
		g.client = c
	}
}

func WithBaseURL(base string) Option {
	return func(g *GitHub) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

func WithUserAgent(ua string) Option {
	return func(g *GitHub) {
		g.userAgent = ua
	}
}

// WithToken authenticates requests, raising the hourly rate limit.
func WithToken(token string) Option {
	return func(g *GitHub) {
		g.token = token
	}
}

// WithCache serves repeated listings from c instead of the network.
func WithCache(c domain.Cache) Option {
	return func(g *GitHub) {
		g.cache = c
	}
}

func New(opts ...Option) *GitHub {
	g := &GitHub{
		client:    &http.Client{},
		baseURL:   DefaultAPIURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitHub) Tags(ctx context.Context, pkg domain.PackageID) ([]domain.Tag, error) {
	var raw []githubTag
	if err := g.getJSON(ctx, g.repoURL(pkg, "tags"), &raw); err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", pkg, err)
	}

	tags := make([]domain.Tag, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			continue
		}
		tags = append(tags, domain.Tag{Name: t.Name, Commit: t.Commit.SHA})
	}
	return tags, nil
}

func (g *GitHub) Commits(ctx context.Context, pkg domain.PackageID) ([]domain.Commit, error) {
	var raw []githubCommit
	if err := g.getJSON(ctx, g.repoURL(pkg, "commits"), &raw); err != nil {
		return nil, fmt.Errorf("listing commits of %s: %w", pkg, err)
	}

	commits := make([]domain.Commit, 0, len(raw))
	for _, c := range raw {
		if c.SHA == "" {
			continue
		}
		commits = append(commits, domain.Commit{SHA: c.SHA, Date: c.Commit.Author.Date})
	}
	return commits, nil
}

func (g *GitHub) repoURL(pkg domain.PackageID, resource string) string {
	return fmt.Sprintf("%s/repos/%s/%s/%s?per_page=%d", g.baseURL, pkg.Author, pkg.Name, resource, perPage)
}

func (g *GitHub) getJSON(ctx context.Context, url string, v any) error {
	if g.cache != nil {
		if cached, ok := g.cache.Get(url); ok {
			if err := json.Unmarshal(cached, v); err == nil {
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return rlErr
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if g.cache != nil {
		_ = g.cache.Put(url, body)
	}
	return nil
}

func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" || resp.StatusCode == http.StatusOK {
		return nil
	}
	if rem, err := strconv.Atoi(remaining); err != nil || rem > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(reset, 0)}
}
