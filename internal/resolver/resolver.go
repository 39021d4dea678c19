package resolver

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/gpm/internal/domain"
)

var tagPrefix = regexp.MustCompile(`^[vV](\d.*)$`)

// Resolver turns a package's tags and commits into an ordered list of
// installable version tokens: releases first, then untagged commits.
type Resolver struct {
	source domain.VersionSource
	logger *log.Logger
}

func New(source domain.VersionSource, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		source: source,
		logger: logger,
	}
}

// Resolve lists at most maxCount versions of pkg, or all of them when
// maxCount is not positive.
func (r *Resolver) Resolve(ctx context.Context, pkg domain.PackageID, maxCount int) ([]string, error) {
	if maxCount <= 0 {
		return r.resolveAll(ctx, pkg)
	}

	tags, tagged := r.tags(ctx, pkg)
	if len(tags) > maxCount {
		tags = tags[:maxCount]
	}
	if len(tags) == maxCount {
		return tags, nil
	}

	commits := untaggedRefs(r.commits(ctx, pkg), tagged, maxCount-len(tags))
	return finish(pkg, tags, commits)
}

func (r *Resolver) resolveAll(ctx context.Context, pkg domain.PackageID) ([]string, error) {
	var (
		tags    []string
		tagged  map[string]bool
		commits []domain.Commit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tags, tagged = r.tags(gctx, pkg)
		return nil
	})
	g.Go(func() error {
		commits = r.commits(gctx, pkg)
		return nil
	})
	_ = g.Wait()

	return finish(pkg, tags, untaggedRefs(commits, tagged, 0))
}

func finish(pkg domain.PackageID, tags, commits []string) ([]string, error) {
	if len(tags) == 0 && len(commits) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, pkg)
	}
	return append(tags, commits...), nil
}

// tags returns prefix-stripped tag versions, newest first, and the set of
// short commit refs they point at.
func (r *Resolver) tags(ctx context.Context, pkg domain.PackageID) ([]string, map[string]bool) {
	raw, err := r.source.Tags(ctx, pkg)
	if err != nil {
		r.logger.Debug("tag listing unavailable", "package", pkg, "err", err)
		return nil, map[string]bool{}
	}

	tagged := make(map[string]bool, len(raw))
	versions := make([]string, 0, len(raw))
	for _, t := range raw {
		if t.Commit != "" {
			tagged[domain.ShortRef(t.Commit)] = true
		}
		versions = append(versions, StripPrefix(t.Name))
	}

	SortDescending(versions)
	return versions, tagged
}

func (r *Resolver) commits(ctx context.Context, pkg domain.PackageID) []domain.Commit {
	commits, err := r.source.Commits(ctx, pkg)
	if err != nil {
		r.logger.Debug("commit listing unavailable", "package", pkg, "err", err)
		return nil
	}
	return commits
}

func untaggedRefs(commits []domain.Commit, tagged map[string]bool, limit int) []string {
	sorted := slices.Clone(commits)
	slices.SortStableFunc(sorted, func(a, b domain.Commit) int {
		return b.Date.Compare(a.Date)
	})

	seen := make(map[string]bool, len(sorted))
	refs := make([]string, 0, len(sorted))
	for _, c := range sorted {
		ref := domain.ShortRef(c.SHA)
		if tagged[ref] || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
		if limit > 0 && len(refs) == limit {
			break
		}
	}
	return refs
}

// StripPrefix drops a leading v or V when a digit follows it.
func StripPrefix(tag string) string {
	if m := tagPrefix.FindStringSubmatch(tag); m != nil {
		return m[1]
	}
	return tag
}

// SortDescending orders versions newest first. Valid semantic versions come
// before anything else; the rest are compared segment by segment.
func SortDescending(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int {
		return Compare(b, a)
	})
}

func Compare(a, b string) int {
	sa, sb := "v"+a, "v"+b
	validA, validB := semver.IsValid(sa), semver.IsValid(sb)

	switch {
	case validA && validB:
		if c := semver.Compare(sa, sb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case validA:
		return 1
	case validB:
		return -1
	default:
		return compareLoose(a, b)
	}
}

func compareLoose(a, b string) int {
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool {
			return r == '.' || r == '-' || r == '_' || r == '+'
		})
	}

	pa, pb := split(a), split(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])

		var c int
		switch {
		case errA == nil && errB == nil:
			c = cmp.Compare(na, nb)
		case errA == nil:
			c = 1
		case errB == nil:
			c = -1
		default:
			c = strings.Compare(pa[i], pb[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(pa), len(pb))
}
