package build

import (
	"context"
	"time"

	"toolsmith_server/internal/types"
)

// State of a build.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateStep         State = "step"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Event is published on every state transition.
type Event struct {
	State    State    `json:"state"`
	Step     int      `json:"step"`
	Total    int      `json:"total"`
	Title    string   `json:"title,omitempty"`
	Lines    []string `json:"lines,omitempty"`
	Code     string   `json:"code,omitempty"`
	Progress float64  `json:"progress"`
	Error    string   `json:"error,omitempty"`

	// Set on completion.
	ID             string                    `json:"id,omitempty"`
	Customizations *types.ThemeCustomization `json:"customizations,omitempty"`
	Warning        string                    `json:"warning,omitempty"`
}

// Publisher receives build events in order.
type Publisher func(Event)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Simulator walks a step list with a fixed delay per step.
type Simulator struct {
	delay time.Duration
	sleep Sleeper
}

func NewSimulator(delay time.Duration, sleep Sleeper) *Simulator {
	if sleep == nil {
		sleep = Sleep
	}
	return &Simulator{delay: delay, sleep: sleep}
}

// Run publishes one event per step, waiting the step delay after each. Progress
// is the step index over the step count. Run does not publish the terminal
// event; the caller does once the real work is known to have succeeded.
func (s *Simulator) Run(ctx context.Context, steps []Step, publish Publisher) error {
	total := len(steps)
	for i, step := range steps {
		state := StateStep
		if i == 0 {
			state = StateInitializing
		}
		publish(Event{
			State:    state,
			Step:     i,
			Total:    total,
			Title:    step.Title,
			Lines:    step.Lines,
			Code:     step.Code,
			Progress: Progress(i, total),
		})
		if err := s.sleep(ctx, s.delay); err != nil {
			return err
		}
	}
	return nil
}

// Progress is index/total, or 0 for an empty build.
func Progress(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(index) / float64(total)
}
