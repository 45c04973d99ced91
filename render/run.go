// Package render implements command which parses markup documents, applies
// style sheets to their visual trees and writes results.
package render

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"mpdom/archive"
	"mpdom/common"
	"mpdom/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	sheets := cmd.StringSlice("stylesheet")
	if env.Cfg.Document.Styles.StylesheetPath != "" {
		sheets = append([]string{env.Cfg.Document.Styles.StylesheetPath}, sheets...)
	}
	if err := loadUserSheets(env, sheets); err != nil {
		return err
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	if w := cmd.String("wrap"); len(w) > 0 {
		mode, err := common.ParseWrapMode(w)
		if err != nil {
			log.Warn("Unknown wrap mode requested, keeping configured one", zap.String("wrap", w), zap.Error(err))
		} else {
			env.Cfg.Document.Styles.Wrap = mode
		}
	}

	if err := registerEntities(env, cmd.StringSlice("entity")); err != nil {
		return err
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// registerEntities adds user defined entities in form "name=U+XXXX" or
// "name=X" to the shared entity table.
func registerEntities(env *state.LocalEnv, defs []string) error {
	for _, def := range defs {
		name, value, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || value == "" {
			return fmt.Errorf("bad entity definition %q", def)
		}
		r, err := parseCodePoint(value)
		if err != nil {
			return fmt.Errorf("bad entity definition %q: %w", def, err)
		}
		env.Cascade().Entities.Register(name, r)
	}
	return nil
}

func parseCodePoint(value string) (rune, error) {
	if hex, ok := strings.CutPrefix(strings.ToUpper(value), "U+"); ok {
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, err
		}
		if !utf8.ValidRune(rune(n)) {
			return 0, fmt.Errorf("invalid code point %s", value)
		}
		return rune(n), nil
	}
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError || size != len(value) {
		return 0, errors.New("value must be a single character or U+XXXX")
	}
	return r, nil
}

func loadUserSheets(env *state.LocalEnv, paths []string) error {
	env.Stylesheets = env.Stylesheets[:0]
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("unable to read style sheet from %q: %w", p, err)
		}
		env.Stylesheets = append(env.Stylesheets, state.UserSheet{Name: filepath.Base(p), Data: data})
	}
	return nil
}

// process determines the input type (directory, archive, or single file) and
// processes it accordingly. Path may continue inside of archive.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		ct, enc, ok, err := isMarkupFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if ok && len(tail) == 0 {
			if err := processFile(ctx, head, filepath.Base(head), ct, enc, dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as markup document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

func processFile(ctx context.Context, path, src, contentType string, enc srcEncoding, dst string, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	r, ct := selectReader(file, contentType, enc)
	return processDocument(ctx, r, ct, src, os.DirFS(filepath.Dir(path)), dst, log)
}

// processDir walks directory tree finding markup documents and archives and
// processes them in natural order.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortStableFunc(paths, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		ct, enc, ok, err := isMarkupFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !ok {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			continue
		}
		count++
		if err := processFile(ctx, path, rel, ct, enc, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive walks all files inside archive, finds documents under
// "pathIn" and processes them. Document resources are looked up in the same
// archive.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return archive.Walk(ctx, path, pathIn, func(archive string, fsys fs.FS, f *zip.File) error {
		ct, enc, ok, err := isMarkupInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", archive), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", archive), zap.String("file", f.Name))
			return nil
		}

		count++

		if err := processArchived(ctx, archive, fsys, f, ct, enc, pathOut, dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

func processArchived(ctx context.Context, archiveName string, fsys fs.FS, f *zip.File, contentType string, enc srcEncoding, pathOut, dst string, log *zap.Logger) error {
	res, err := archive.Sub(fsys, f)
	if err != nil {
		return err
	}

	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	cp := state.EnvFromContext(ctx).CodePage

	pathInArchive := f.Name
	if cp != nil && f.NonUTF8 {
		// forcing zip file name encoding
		if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
			pathInArchive = n
		} else {
			n, _ = ianaindex.IANA.Name(cp)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("archive", archiveName), zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
		}
	}

	rd, ct := selectReader(r, contentType, enc)
	return processDocument(ctx, rd, ct, filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), res, dst, log)
}
