package build

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"toolsmith_server/internal/classifier"
	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"
	"toolsmith_server/internal/utils"
)

// ErrInvalidRequest is returned before any work starts.
var ErrInvalidRequest = errors.New("invalid build request")

// Request is an accepted plan plus the user's template and feature choices.
type Request struct {
	Prompt       string           `json:"prompt"`
	ToolConfig   types.ToolConfig `json:"toolConfig"`
	Template     string           `json:"template"`
	Features     []string         `json:"features"`
	CustomPrompt string           `json:"customPrompt"`
}

// Result of a completed build.
type Result struct {
	ID             string                   `json:"id"`
	Customizations types.ThemeCustomization `json:"customizations"`
	Warning        string                   `json:"warning,omitempty"`
	Log            []Event                  `json:"log"`
}

// ThemeResolver resolves the template choice into a theme.
type ThemeResolver interface {
	Resolve(ctx context.Context, template, prompt string, toolType types.ToolType) (types.ThemeCustomization, string, error)
}

// ToolSaver persists a finished tool.
type ToolSaver interface {
	Create(ctx context.Context, prompt string, cfg types.ToolConfig, customizations types.ThemeCustomization) (types.HistoryEntry, error)
}

type Builder struct {
	resolver ThemeResolver
	store    ToolSaver
	sim      *Simulator
}

func NewBuilder(resolver ThemeResolver, store ToolSaver, stepDelay time.Duration, sleep Sleeper) *Builder {
	return &Builder{
		resolver: resolver,
		store:    store,
		sim:      NewSimulator(stepDelay, sleep),
	}
}

// Validate checks a request and fills the tool type from the prompt when the
// plan does not carry a known one.
func Validate(req *Request) error {
	if utils.IsBlank(req.Prompt) {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if utils.IsBlank(req.ToolConfig.Title) {
		return fmt.Errorf("%w: toolConfig.title is required", ErrInvalidRequest)
	}
	if req.Template == "" {
		req.Template = types.TemplateModern
	}
	if !theme.ValidTemplate(req.Template) {
		return fmt.Errorf("%w: unknown template %q", ErrInvalidRequest, req.Template)
	}
	if !req.ToolConfig.ToolType.Valid() {
		req.ToolConfig.ToolType = classifier.Classify(req.Prompt)
	}
	return nil
}

// Build runs the step sequence alongside the theme resolution, then persists
// the tool. Every event is passed to publish (which may be nil) and kept in the
// result log. A resolver or store failure ends the build in StateFailed and
// nothing is persisted.
func (b *Builder) Build(ctx context.Context, req Request, publish Publisher) (Result, error) {
	if err := Validate(&req); err != nil {
		return Result{}, err
	}

	var (
		mu     sync.Mutex
		result Result
	)
	emit := func(e Event) {
		mu.Lock()
		result.Log = append(result.Log, e)
		mu.Unlock()
		if publish != nil {
			publish(e)
		}
	}

	steps := Steps(req.ToolConfig, req.Template, req.Features)
	total := len(steps)

	themePrompt := req.Prompt
	if !utils.IsBlank(req.CustomPrompt) {
		themePrompt = req.CustomPrompt
	}

	var (
		customizations types.ThemeCustomization
		warning        string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, w, err := b.resolver.Resolve(gctx, req.Template, themePrompt, req.ToolConfig.ToolType)
		if err != nil {
			return fmt.Errorf("theme resolution failed: %w", err)
		}
		customizations, warning = t, w
		return nil
	})
	g.Go(func() error {
		return b.sim.Run(gctx, steps, emit)
	})

	fail := func(err error) (Result, error) {
		log.Printf("ERROR: build of %q failed: %v", req.ToolConfig.Title, err)
		emit(Event{State: StateFailed, Total: total, Error: err.Error(), Progress: lastProgress(&mu, &result)})
		return result, err
	}

	if err := g.Wait(); err != nil {
		return fail(err)
	}

	if warning != "" {
		log.Printf("WARN: build of %q: %s", req.ToolConfig.Title, warning)
	}

	entry, err := b.store.Create(ctx, req.Prompt, req.ToolConfig, customizations)
	if err != nil {
		return fail(fmt.Errorf("failed to save tool: %w", err))
	}

	result.ID = entry.ID
	result.Customizations = entry.Customizations
	result.Warning = warning
	emit(Event{
		State:          StateCompleted,
		Step:           total,
		Total:          total,
		Title:          "Completed",
		Progress:       1,
		ID:             entry.ID,
		Customizations: &entry.Customizations,
		Warning:        warning,
	})
	log.Printf("Build completed for tool %s (%q)", entry.ID, req.ToolConfig.Title)
	return result, nil
}

func lastProgress(mu *sync.Mutex, r *Result) float64 {
	mu.Lock()
	defer mu.Unlock()
	if len(r.Log) == 0 {
		return 0
	}
	return r.Log[len(r.Log)-1].Progress
}
