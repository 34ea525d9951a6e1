package build

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"toolsmith_server/internal/store"
	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"
)

type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	return ctx.Err()
}

type stubResolver struct {
	theme   types.ThemeCustomization
	warning string
	err     error

	mu     sync.Mutex
	prompt string
}

func (s *stubResolver) Resolve(ctx context.Context, template, prompt string, toolType types.ToolType) (types.ThemeCustomization, string, error) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
	return s.theme, s.warning, s.err
}

type failingSaver struct{}

func (failingSaver) Create(context.Context, string, types.ToolConfig, types.ThemeCustomization) (types.HistoryEntry, error) {
	return types.HistoryEntry{}, errors.New("disk full")
}

type failingDesigner struct{}

func (failingDesigner) DesignTheme(context.Context, string, types.ToolType) (types.ThemeCustomization, error) {
	return types.ThemeCustomization{}, errors.New("upstream 500")
}

func sampleRequest() Request {
	return Request{
		Prompt:     "meta tag checker for plumbers",
		ToolConfig: types.ToolConfig{ToolType: types.ToolTypeMeta, Title: "Meta Checker"},
		Template:   types.TemplateModern,
		Features:   []string{"analytics"},
	}
}

func TestSteps(t *testing.T) {
	cfg := types.ToolConfig{ToolType: types.ToolTypeMeta, Title: "Meta", Fields: []types.FieldSpec{{Name: "url"}}}
	steps := Steps(cfg, types.TemplateModern, []string{"analytics", "Custom Widget", "  "})

	want := []string{
		"Initializing",
		"Applying modern layout",
		"Generating color system",
		"Wiring analytics",
		"Adding Custom Widget",
		"Building meta tag analyzer",
		"Adding SERP preview",
		"Optimizing performance",
		"Running final checks",
		"Finalizing tool",
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d: %+v", len(steps), len(want), steps)
	}
	for i, title := range want {
		if steps[i].Title != title {
			t.Errorf("step %d = %q, want %q", i, steps[i].Title, title)
		}
	}
	serp := steps[6].Lines
	if serp[len(serp)-1] != "Adding field url" {
		t.Errorf("field lines missing from tool steps: %v", serp)
	}
	if again := Steps(types.ToolConfig{ToolType: types.ToolTypeMeta}, types.TemplateModern, nil); len(again[4].Lines) != 1 {
		t.Errorf("field lines leaked into the shared step table: %v", again[4].Lines)
	}
}

func TestStepsUnknownToolTypeUsesGeneral(t *testing.T) {
	steps := Steps(types.ToolConfig{ToolType: "weird"}, types.TemplatePlayful, nil)
	found := false
	for _, s := range steps {
		if s.Title == "Building analysis engine" {
			found = true
		}
	}
	if !found {
		t.Errorf("general steps missing: %+v", steps)
	}
}

func TestSimulatorProgress(t *testing.T) {
	sleeper := &recordingSleeper{}
	sim := NewSimulator(800*time.Millisecond, sleeper.Sleep)
	steps := []Step{{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}}

	var events []Event
	if err := sim.Run(context.Background(), steps, func(e Event) { events = append(events, e) }); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].State != StateInitializing {
		t.Errorf("first state = %s", events[0].State)
	}
	for i, e := range events {
		if e.Progress != float64(i)/4 {
			t.Errorf("event %d progress = %v", i, e.Progress)
		}
		if i > 0 && e.State != StateStep {
			t.Errorf("event %d state = %s", i, e.State)
		}
	}
	if len(sleeper.calls) != 4 || sleeper.calls[0] != 800*time.Millisecond {
		t.Errorf("sleeps = %v", sleeper.calls)
	}
}

func TestSimulatorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := NewSimulator(time.Hour, nil)

	var events []Event
	err := sim.Run(ctx, []Step{{Title: "a"}, {Title: "b"}}, func(e Event) { events = append(events, e) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after cancel", len(events))
	}
}

func TestBuildCompletes(t *testing.T) {
	tools := store.NewToolStore(store.NewMemoryKV())
	resolver := &stubResolver{theme: theme.Playful()}
	b := NewBuilder(resolver, tools, 0, (&recordingSleeper{}).Sleep)

	var published []Event
	res, err := b.Build(context.Background(), sampleRequest(), func(e Event) { published = append(published, e) })
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if res.ID == "" {
		t.Fatal("missing tool id")
	}
	if res.Customizations != theme.Playful() {
		t.Errorf("Customizations = %+v", res.Customizations)
	}
	if len(published) != len(res.Log) {
		t.Errorf("published %d events, logged %d", len(published), len(res.Log))
	}
	last := res.Log[len(res.Log)-1]
	if last.State != StateCompleted || last.Progress != 1 || last.ID != res.ID || last.Customizations == nil {
		t.Errorf("last event = %+v", last)
	}

	entry, err := tools.Load(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("tool not persisted: %v", err)
	}
	if entry.ToolConfig.Title != "Meta Checker" {
		t.Errorf("persisted %+v", entry.ToolConfig)
	}
}

func TestBuildUsesCustomPrompt(t *testing.T) {
	resolver := &stubResolver{theme: theme.DefaultCustom()}
	b := NewBuilder(resolver, store.NewToolStore(store.NewMemoryKV()), 0, nil)

	req := sampleRequest()
	req.Template = types.TemplateCustom
	req.CustomPrompt = "dark and moody"
	if _, err := b.Build(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if resolver.prompt != "dark and moody" {
		t.Errorf("resolver prompt = %q", resolver.prompt)
	}
}

func TestBuildFailsOnResolverError(t *testing.T) {
	tools := store.NewToolStore(store.NewMemoryKV())
	b := NewBuilder(&stubResolver{err: context.DeadlineExceeded}, tools, 0, nil)

	res, err := b.Build(context.Background(), sampleRequest(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	last := res.Log[len(res.Log)-1]
	if last.State != StateFailed || last.Error == "" {
		t.Errorf("last event = %+v", last)
	}
	if history, _ := tools.History(context.Background()); len(history) != 0 {
		t.Errorf("failed build was persisted: %+v", history)
	}
}

func TestBuildFailsOnStoreError(t *testing.T) {
	b := NewBuilder(&stubResolver{theme: theme.Modern()}, failingSaver{}, 0, nil)

	res, err := b.Build(context.Background(), sampleRequest(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if last := res.Log[len(res.Log)-1]; last.State != StateFailed {
		t.Errorf("last state = %s", last.State)
	}
}

// TestBuildCustomThemeFallback verifies a failed custom theme still completes with a warning.
func TestBuildCustomThemeFallback(t *testing.T) {
	b := NewBuilder(theme.NewResolver(failingDesigner{}), store.NewToolStore(store.NewMemoryKV()), 0, nil)

	req := sampleRequest()
	req.Template = types.TemplateCustom
	res, err := b.Build(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Warning == "" {
		t.Error("expected a warning")
	}
	if res.Customizations.UITemplate != types.TemplateCustom || res.Customizations.CustomPrompt != req.Prompt {
		t.Errorf("Customizations = %+v", res.Customizations)
	}
}

func TestValidate(t *testing.T) {
	req := Request{Prompt: " ", ToolConfig: types.ToolConfig{Title: "x"}}
	if err := Validate(&req); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("blank prompt: %v", err)
	}

	req = Request{Prompt: "p", ToolConfig: types.ToolConfig{Title: "x"}, Template: "neon"}
	if err := Validate(&req); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown template: %v", err)
	}

	req = Request{Prompt: "keyword ideas for bakeries", ToolConfig: types.ToolConfig{Title: "x"}}
	if err := Validate(&req); err != nil {
		t.Fatal(err)
	}
	if req.Template != types.TemplateModern || req.ToolConfig.ToolType != types.ToolTypeKeyword {
		t.Errorf("defaults not applied: %+v", req)
	}
}
