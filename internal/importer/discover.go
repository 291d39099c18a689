package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxDeckSize is the largest deck file considered (1 MB).
const MaxDeckSize int64 = 1 << 20

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".idea",
	".vscode",
}

// Discover expands each argument into deck files. An argument naming a
// file is used as is; a directory is walked for *.yml and *.yaml files;
// anything else is treated as a doublestar glob. Results are de-duplicated
// and sorted.
func Discover(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			files, err := walkDir(arg)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case err == nil:
			add(filepath.Clean(arg))
		default:
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no deck files match %q", arg)
			}
			for _, m := range matches {
				if isDeckFile(m) {
					add(filepath.Clean(m))
				}
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func walkDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isDeckFile(path) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > MaxDeckSize {
			return nil
		}
		files = append(files, filepath.Clean(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func isExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

func isDeckFile(path string) bool {
	ok, _ := doublestar.Match("*.{yml,yaml}", strings.ToLower(filepath.Base(path)))
	return ok
}
