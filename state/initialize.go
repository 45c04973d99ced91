package state

import (
	"time"

	"mpdom/cascade"
	"mpdom/visual"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// Cascade returns cascading context shared by all documents processed by the
// program, font catalog comes from configuration.
func (e *LocalEnv) Cascade() *cascade.Context {
	e.once.Do(func() {
		var catalog visual.FontCatalog
		if e.Cfg != nil && len(e.Cfg.Document.Layout.Fonts) > 0 {
			catalog = e.Cfg.Document.Layout.Fonts
		}
		e.cascade = cascade.NewContext(catalog)
	})
	return e.cascade
}
