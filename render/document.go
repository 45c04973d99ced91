package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mpdom/cascade"
	"mpdom/css"
	"mpdom/diag"
	"mpdom/dom"
	"mpdom/fetch"
	"mpdom/markup"
	"mpdom/state"
	"mpdom/visual"
	"mpdom/visual/box"
)

// output is a single artifact produced for rendered document.
type output struct {
	ext   string
	write func(w io.Writer) error
}

// documentURL returns location document is parsed against. Without
// configured base every document is placed at the root of its resource file
// system.
func documentURL(base, src string) (*url.URL, error) {
	name := path.Base(filepath.ToSlash(src))
	if base == "" {
		return &url.URL{Scheme: "file", Path: "/" + name}, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("bad base url: %w", err)
	}
	if strings.HasSuffix(u.Path, "/") || u.Path == "" {
		return u.ResolveReference(&url.URL{Path: name}), nil
	}
	return u, nil
}

// userSheets parses style sheets supplied on command line and in
// configuration.
func userSheets(sheets []state.UserSheet, parser *css.Parser, log *zap.Logger) []*css.Sheet {
	out := make([]*css.Sheet, 0, len(sheets))
	for _, us := range sheets {
		sheet, err := parser.Parse(us.Data, css.Source{External: true, Name: us.Name})
		if err != nil {
			log.Warn("Unable to use user style sheet", zap.String("name", us.Name), zap.Error(err))
			continue
		}
		out = append(out, sheet)
	}
	return out
}

// enqueueImages requests data for every bound <img> of the document.
func enqueueImages(doc *markup.Document, fetcher *fetch.Local, log *zap.Logger) map[string]*box.Image {
	ids := make(map[string]*box.Image)
	doc.Root.Walk(func(e *dom.Element) bool {
		if e.Tag() != dom.TagImg {
			return true
		}
		for _, n := range e.Bound() {
			img, ok := n.(*box.Image)
			if !ok || img.Src == "" {
				continue
			}
			u, err := url.Parse(strings.TrimSpace(img.Src))
			if err != nil {
				log.Debug("Ignoring bad image reference", zap.String("src", img.Src), zap.Error(err))
				continue
			}
			if doc.Base != nil {
				u = doc.Base.ResolveReference(u)
			}
			ids[fetcher.EnqueueImage(u, img, visual.MaskAll)] = img
		}
		return false
	})
	return ids
}

// processDocument renders single markup document. "src" is part of the source
// path (always including file name) relative to the original path, "fsys" is
// file system document resources are fetched from.
func processDocument(ctx context.Context, r io.Reader, contentType, src string, fsys fs.FS, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Document

	var outputBase string
	var rep *diag.Reporter

	log.Info("Rendering starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: when multiple documents are being processed we do not want
		// to stop on a single broken one.
		if r := recover(); r != nil {
			log.Error("Rendering ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputBase), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("rendering panic: %v", r)
		} else {
			log.Info("Rendering completed", append(rep.Summary(), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputBase))...)
		}
	}(time.Now())

	abort := cfg.AbortCodes()
	var diags strings.Builder
	rep = diag.NewReporter(func(d diag.Diagnostic) bool {
		fmt.Fprintln(&diags, d.String())
		return !abort[d.Code]
	}, log)

	base, err := documentURL(cfg.BaseURL, src)
	if err != nil {
		return err
	}

	cctx := env.Cascade()
	styles := css.NewParser(rep, cfg.Styles.Media, log)
	parser := markup.NewParser(rep, cctx.Entities, styles, markup.Options{ProcessStyles: cfg.Styles.Process}, log)

	doc, err := parser.Parse(r, markup.Source{URL: base, ContentType: contentType, Name: src})
	if err != nil {
		return fmt.Errorf("unable to parse document (%s): %w", src, err)
	}

	root := box.Build(doc.Root, box.Options{Font: cfg.Layout.Font.Font(), Width: cfg.Layout.Width})

	fetcher := fetch.NewLocalFS(fsys, log)
	fetcher.RasterizeSVG = cfg.Images.RasterizeSVG

	opts := cascade.Options{
		Width:               cfg.Layout.Width,
		Font:                cfg.Layout.Font.Font(),
		LinkFocusBackground: cfg.Styles.LinkFocusBackground,
		Wrap:                cfg.Styles.Wrap,
	}
	if cfg.Styles.Process {
		opts.UserSheets = userSheets(env.Stylesheets, styles, log)
	}
	engine := cascade.NewEngine(doc, cctx, styles, fetcher, rep, opts, log)
	if err := engine.Apply(); err != nil {
		return fmt.Errorf("unable to apply styles (%s): %w", src, err)
	}

	images := enqueueImages(doc, fetcher, log)
	err = fetcher.Drain(ctx, func(res fetch.Result) error {
		img, ok := images[res.Request.ID]
		if !ok {
			return engine.OnFetchComplete(res.Request.ID, res)
		}
		delete(images, res.Request.ID)
		if res.Err != nil {
			log.Debug("Image is not available", zap.String("src", img.Src), zap.Error(res.Err))
			return nil
		}
		img.Data = res.Image
		img.Refresh()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, diag.ErrMalformedMarkup) {
			return fmt.Errorf("unable to fetch resources (%s): %w", src, err)
		}
		for _, e := range multierr.Errors(err) {
			log.Warn("Resource processing failed", zap.Error(e))
		}
	}
	log.Debug("Cascade finished", zap.Int("passes", engine.Passes()))

	outputBase = buildOutputPath(doc, src, dst, env)

	var outputs []output
	if cfg.Outputs.Tree {
		outputs = append(outputs, output{ext: ".tree", write: func(w io.Writer) error {
			_, err := io.WriteString(w, box.Dump(root))
			return err
		}})
	}
	if cfg.Outputs.XHTML {
		outputs = append(outputs, output{ext: ".xhtml", write: func(w io.Writer) error {
			x := doc.Root.XHTML()
			x.Indent(2)
			_, err := x.WriteTo(w)
			return err
		}})
	}
	if cfg.Outputs.CSS {
		outputs = append(outputs, output{ext: ".css", write: func(w io.Writer) error {
			for _, sheet := range engine.Sheets() {
				if _, err := sheet.WriteTo(w); err != nil {
					return err
				}
			}
			return nil
		}})
	}

	for _, o := range outputs {
		if err := writeOutput(outputBase+o.ext, o.write, env, log); err != nil {
			return err
		}
	}

	if env.Rpt != nil && diags.Len() > 0 {
		env.Rpt.StoreData(fmt.Sprintf("diagnostics-%s.txt", filepath.Base(outputBase)), []byte(diags.String()))
	}
	return nil
}

func writeOutput(name string, write func(w io.Writer) error, env *state.LocalEnv, log *zap.Logger) (err error) {
	// Check if output file already exists
	if _, err := os.Stat(name); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		if err = os.Remove(name); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("unable to write output %s: %w", name, err)
	}

	// Store rendering result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s", filepath.Base(name)), name)
	}
	return nil
}
