package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrManifestNotFound = errors.New("manifest not found")
	ErrManifestInvalid  = errors.New("invalid manifest")
	ErrManifestExists   = errors.New("manifest already exists")
	ErrPackageNotFound  = errors.New("package not found")
	ErrDownloadFailed   = errors.New("download failed")
	ErrExtract          = errors.New("extract failed")
	ErrWrite            = errors.New("write failed")
)

// DownloadError is returned when every candidate URL for a specifier failed
// but the package itself exists.
type DownloadError struct {
	Package     PackageID
	Specifier   Specifier
	Tried       []string
	Suggestions []string
}

func (e *DownloadError) Error() string {
	msg := fmt.Sprintf("unable to find version %s of package %s", e.Specifier, e.Package)
	if len(e.Suggestions) > 0 {
		msg += ", did you mean one of: " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}
