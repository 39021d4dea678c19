package extractor

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
)

// metadataDir is the hosting service's repository metadata folder; it is
// never installed.
const metadataDir = ".github"

type ZIPExtractor struct {
	// StripComponents is the number of leading path segments removed from
	// every entry.
	StripComponents int
}

func NewZIP() *ZIPExtractor {
	return &ZIPExtractor{StripComponents: 1}
}

func (ze *ZIPExtractor) Extract(src, dst string, include, exclude []string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		name, ok := ze.strip(f.Name)
		if !ok || skipped(name, exclude) {
			continue
		}

		target := filepath.Join(dst, filepath.FromSlash(name))
		if !within(dst, target) {
			return fmt.Errorf("invalid path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if len(include) > 0 {
				continue
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if !included(name, include) {
			continue
		}

		if err := writeEntry(f, target); err != nil {
			return err
		}
	}

	return nil
}

// strip removes the leading path segments. Entries that are nothing but
// the stripped prefix report false.
func (ze *ZIPExtractor) strip(name string) (string, bool) {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	parts := strings.Split(name, "/")
	if len(parts) <= ze.StripComponents {
		return "", false
	}

	rest := strings.Trim(path.Join(parts[ze.StripComponents:]...), "/")
	if rest == "" || rest == "." {
		return "", false
	}
	return rest, true
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(outFile, rc); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}

func skipped(name string, exclude []string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == metadataDir {
			return true
		}
	}
	for _, pat := range exclude {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pat+"/**", name); err == nil && matched {
			return true
		}
	}
	return false
}

// included reports whether a file passes the include filter. Patterns are
// file extensions, compared case-insensitively with or without the dot.
func included(name string, include []string) bool {
	if len(include) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, pat := range include {
		if strings.TrimPrefix(strings.ToLower(pat), ".") == ext {
			return true
		}
	}
	return false
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
