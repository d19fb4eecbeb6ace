package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// WriteFileAtomic streams r into a temporary file in the directory of name and
// renames it over name once the copy succeeded. On failure the temporary file is
// removed and name is left untouched. It returns the number of bytes written.
func WriteFileAtomic(fsys Filesystem, name string, r io.Reader) (int64, error) {
	dir := filepath.Dir(name)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create parent of %q: %w", name, err)
	}

	tmp, err := fsys.TempFile(dir, "."+filepath.Base(name)+".partial-")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %q: %w", name, err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = fsys.Remove(tmpName)
		if copyErr != nil {
			return n, fmt.Errorf("write %q: %w", name, copyErr)
		}
		return n, fmt.Errorf("close %q: %w", name, closeErr)
	}

	if err := fsys.Rename(tmpName, name); err != nil {
		_ = fsys.Remove(tmpName)
		return n, fmt.Errorf("rename into %q: %w", name, err)
	}
	return n, nil
}

// ListFiles returns the regular files below root as slash-separated paths
// relative to root, sorted lexically. Directories named in skip are not entered.
func ListFiles(fsys Filesystem, root string, skip ...string) ([]string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	var files []string
	err := fsys.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && skipped[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files under %q: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Clear removes everything inside dir except the entries named in keep,
// creating dir when it does not exist.
func Clear(fsys Filesystem, dir string, keep ...string) error {
	exists, err := fsys.Exists(dir)
	if err != nil {
		return err
	}
	if !exists {
		return fsys.MkdirAll(dir, 0o755)
	}

	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if kept[entry.Name()] {
			continue
		}
		if err := fsys.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
