package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ludo-technologies/pytree/domain"
)

// FileReaderImpl implements the FileReader interface
type FileReaderImpl struct{}

// NewFileReader creates a new file reader service
func NewFileReader() *FileReaderImpl {
	return &FileReaderImpl{}
}

// CollectSourceFiles recursively lists the regular files under root whose
// name ends with suffix, in lexical order. A root that is itself a file is
// returned alone when it matches. Failing to read any directory aborts the
// walk.
func (f *FileReaderImpl) CollectSourceFiles(root, suffix string, includePatterns, excludePatterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewFileNotFoundError(root, err)
		}
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot access path: %s", root), err)
	}

	if !info.IsDir() {
		if info.Mode().IsRegular() && f.selected(filepath.Dir(root), root, suffix, includePatterns, excludePatterns) {
			return []string{root}, nil
		}
		return []string{}, nil
	}

	files := []string{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return domain.NewInvalidInputError(fmt.Sprintf("cannot read directory: %s", path), err)
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		if f.selected(root, path, suffix, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

// ReadFile reads the content of a file
func (f *FileReaderImpl) ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	return content, nil
}

// Matches reports whether path would be selected by CollectSourceFiles for root
func (f *FileReaderImpl) Matches(root, path, suffix string, includePatterns, excludePatterns []string) bool {
	if !strings.HasSuffix(filepath.Base(path), suffix) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return f.selected(root, path, suffix, includePatterns, excludePatterns)
}

// selected applies the suffix test and the include/exclude patterns.
// Patterns are matched against the root-relative slash path and the base name.
func (f *FileReaderImpl) selected(root, path, suffix string, includePatterns, excludePatterns []string) bool {
	if !strings.HasSuffix(filepath.Base(path), suffix) {
		return false
	}

	rel := relativeSlashPath(root, path)
	base := filepath.Base(path)

	// Exclusion wins
	for _, pattern := range excludePatterns {
		if matchPattern(pattern, rel, base) {
			return false
		}
	}

	// If no include patterns specified, include by default
	if len(includePatterns) == 0 {
		return true
	}

	for _, pattern := range includePatterns {
		if matchPattern(pattern, rel, base) {
			return true
		}
	}
	return false
}

// isRegular reports whether the entry is a regular file, following symlinks
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func relativeSlashPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func matchPattern(pattern, rel, base string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	ok, _ := doublestar.Match(pattern, base)
	return ok
}
