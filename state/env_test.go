package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mpdom/config"
	"mpdom/visual"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	env := &LocalEnv{
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}
	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}

	empty := &LocalEnv{}
	empty.RedirectStdLog()
	if empty.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil without logger")
	}
	empty.RestoreStdLog()
}

func TestLocalEnv_Cascade(t *testing.T) {
	cfg := &config.Config{}
	cfg.Document.Layout.Fonts = config.Catalog{{Family: "Mono", Size: 10}}
	env := &LocalEnv{Cfg: cfg}

	ctx := env.Cascade()
	if ctx == nil || env.Cascade() != ctx {
		t.Fatal("Cascade() is not shared")
	}
	got := ctx.Font(visual.Font{Family: "monospace", Size: 12})
	if got.Family != "Mono" || got.Size != 10 {
		t.Errorf("Font() = %v, want catalog font", got)
	}

	plain := (&LocalEnv{}).Cascade()
	want := visual.Font{Family: "x", Size: 3}
	if got := plain.Font(want); *got != want {
		t.Errorf("Font() without catalog = %v", got)
	}
}
