package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teamcutter/gpm/internal/domain"
	"github.com/teamcutter/gpm/internal/fsutil"
)

// Extractor installs staged payloads. Zip archives are unpacked into a
// package directory; any other file is moved into place as-is.
type Extractor struct {
	zip *ZIPExtractor
}

func New() *Extractor {
	return &Extractor{
		zip: NewZIP(),
	}
}

func (e *Extractor) Install(staged *domain.Staged, installRoot string, filter domain.Filter) (string, error) {
	authorDir := filepath.Join(installRoot, staged.Package.Author)
	ext := strings.TrimPrefix(filepath.Ext(staged.Path), ".")

	if strings.EqualFold(ext, "zip") {
		dst := filepath.Join(authorDir, staged.Package.Name)
		if err := fsutil.EnsureEmptyDir(dst); err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtract, dst, err)
		}
		if err := e.zip.Extract(staged.Path, dst, filter.Include, filter.Exclude); err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtract, staged.Path, err)
		}
		if err := os.Remove(staged.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtract, staged.Path, err)
		}
		return dst, nil
	}

	dst := filepath.Join(authorDir, staged.Package.Name)
	if ext != "" {
		dst += "." + ext
	}

	if err := fsutil.EnsureExists(authorDir); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtract, err)
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtract, dst, err)
	}
	if err := os.Rename(staged.Path, dst); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtract, dst, err)
	}
	return dst, nil
}
