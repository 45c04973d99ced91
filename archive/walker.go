// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is called for each file in archive visited by Walk. The archive
// argument is path passed to Walk, fsys gives access to the whole archive
// (so that resources referenced by file can be loaded). If an error is
// returned, processing stops.
type WalkFunc func(archive string, fsys fs.FS, file *zip.File) error

// Walk calls walkFn for every file in archive whose name starts with prefix,
// in natural order of names. Archives with absolute names or names
// containing ".." are rejected.
func Walk(ctx context.Context, archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(f.Name, prefix) {
			files = append(files, f)
		}
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := walkFn(archive, &r.Reader, f); err != nil {
			return err
		}
	}
	return nil
}

// Sub returns file system rooted at directory of file inside archive.
func Sub(fsys fs.FS, file *zip.File) (fs.FS, error) {
	dir := path.Dir(file.Name)
	if dir == "." {
		return fsys, nil
	}
	return fs.Sub(fsys, dir)
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(name, "/"), "..")
}
