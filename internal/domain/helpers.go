package domain

import (
	"fmt"
	"strings"
)

const ShortRefLength = 7

func ParsePackageID(s string) (PackageID, error) {
	author, name, ok := strings.Cut(s, "/")
	if !ok || author == "" || name == "" || strings.Contains(name, "/") {
		return PackageID{}, fmt.Errorf("invalid package %q: expected author/name", s)
	}
	return PackageID{Author: author, Name: name}, nil
}

// ParseSpecifier classifies a manifest version string. Prefixes are checked
// in order: URL, commit, branch, then anything else is a tag.
func ParseSpecifier(s string) Specifier {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	switch {
	case s == "":
		return LatestSpec{}
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return URLSpec{URL: s}
	case strings.HasPrefix(s, "#"):
		return CommitSpec{Ref: s[1:]}
	case strings.HasPrefix(s, "dev-"):
		return BranchSpec{Branch: s[len("dev-"):]}
	default:
		return TagSpec{Version: s}
	}
}

// ShortRef formats a commit hash the way the resolver reports commits.
func ShortRef(sha string) string {
	if len(sha) > ShortRefLength {
		sha = sha[:ShortRefLength]
	}
	return "#" + sha
}
