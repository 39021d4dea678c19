package domain

import "time"

type PackageID struct {
	Author string
	Name   string
}

func (p PackageID) String() string {
	return p.Author + "/" + p.Name
}

// Specifier selects which revision of a package to download. The concrete
// types are URLSpec, CommitSpec, BranchSpec, TagSpec and LatestSpec.
type Specifier interface {
	String() string
	isSpecifier()
}

type URLSpec struct {
	URL string
}

type CommitSpec struct {
	Ref string
}

type BranchSpec struct {
	Branch string
}

type TagSpec struct {
	Version string
}

// LatestSpec defers the choice to the resolver's newest version.
type LatestSpec struct{}

func (s URLSpec) String() string    { return s.URL }
func (s CommitSpec) String() string { return "#" + s.Ref }
func (s BranchSpec) String() string { return "dev-" + s.Branch }
func (s TagSpec) String() string    { return s.Version }
func (s LatestSpec) String() string { return "" }

func (URLSpec) isSpecifier()    {}
func (CommitSpec) isSpecifier() {}
func (BranchSpec) isSpecifier() {}
func (TagSpec) isSpecifier()    {}
func (LatestSpec) isSpecifier() {}

type Tag struct {
	Name   string
	Commit string
}

type Commit struct {
	SHA  string
	Date time.Time
}

// Staged is a downloaded payload waiting in the staging area.
type Staged struct {
	Package   PackageID
	Specifier Specifier
	URL       string
	Path      string
	Size      int64
}

type InstallResult struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	DownloadURL string `json:"download_url"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
}

// Outcome is the per-entry report of a whole-manifest install.
type Outcome struct {
	Package string
	Result  *InstallResult
	Err     error
}

// Filter narrows what the installer materializes from an archive.
type Filter struct {
	Include []string
	Exclude []string
}
