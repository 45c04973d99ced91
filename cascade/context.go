package cascade

import (
	"strings"
	"sync"

	"mpdom/entity"
	"mpdom/visual"
)

// genericFamilies are matched against catalog fonts by name substring.
var genericFamilies = map[string][]string{
	"monospace":  {"mono", "courier", "console"},
	"serif":      {"serif", "times", "georgia"},
	"sans-serif": {"sans", "arial", "helvetica", "verdana"},
}

// Context is state shared by engines of unrelated documents: font match
// cache and user entity table. Readers may run concurrently, writes happen
// from cascading goroutine only.
type Context struct {
	catalog  visual.FontCatalog
	Entities *entity.Table

	mu    sync.RWMutex
	fonts map[visual.Font]*visual.Font
}

// NewContext creates context for device font catalog. Nil catalog means
// every requested font is available as is.
func NewContext(catalog visual.FontCatalog) *Context {
	return &Context{
		catalog:  catalog,
		Entities: entity.NewTable(),
		fonts:    make(map[visual.Font]*visual.Font),
	}
}

// Reset drops cached fonts and user entities.
func (c *Context) Reset() {
	c.mu.Lock()
	clear(c.fonts)
	c.mu.Unlock()
	c.Entities.Reset()
}

// CachedFonts returns number of cached matches.
func (c *Context) CachedFonts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fonts)
}

// Font returns best available match for requested font. Results are cached
// and shared, callers must not modify returned font.
func (c *Context) Font(want visual.Font) *visual.Font {
	c.mu.RLock()
	f, ok := c.fonts[want]
	c.mu.RUnlock()
	if ok {
		return f
	}

	f = c.match(want)
	c.mu.Lock()
	if cached, ok := c.fonts[want]; ok {
		f = cached
	} else {
		c.fonts[want] = f
	}
	c.mu.Unlock()
	return f
}

func (c *Context) match(want visual.Font) *visual.Font {
	var fonts []visual.Font
	if c.catalog != nil {
		fonts = c.catalog.Fonts()
	}
	if len(fonts) == 0 {
		return &want
	}
	best, bestScore := fonts[0], -1
	for _, f := range fonts {
		if s := penalty(want, f); bestScore < 0 || s < bestScore {
			best, bestScore = f, s
		}
	}
	return &best
}

// penalty is distance between requested and available font, family
// mismatch weighs most, then style and weight, then size.
func penalty(want, have visual.Font) int {
	p := 0
	if !familyMatches(want.Family, have.Family) {
		p += 10000
	}
	if want.Style != have.Style {
		p += 1000
	}
	if want.Weight != have.Weight {
		p += 1000
	}
	if want.Caps != have.Caps {
		p += 100
	}
	d := want.Size - have.Size
	if d < 0 {
		d = -d * 2 // larger fonts cost double
	}
	return p + d
}

func familyMatches(want, have string) bool {
	want, have = strings.ToLower(want), strings.ToLower(have)
	if want == "" || want == have {
		return true
	}
	for _, hint := range genericFamilies[want] {
		if strings.Contains(have, hint) {
			return true
		}
	}
	return false
}
