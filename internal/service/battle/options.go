package battle

import (
	"context"
	"time"

	"github.com/zhouzirui/ball-arena/backend/internal/analysis/duel"
	model "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

const (
	DefaultTickInterval  = 15 * time.Second
	DefaultDeadline      = 30 * time.Minute
	DefaultRenderTimeout = 10 * time.Second
	DefaultDisplayLimit  = 10
)

// Renderer receives every snapshot a session publishes: on start, after each accepted
// change, on each tick and once with the final state. A failed tick render ends the
// session.
type Renderer interface {
	Render(ctx context.Context, view model.View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view model.View) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, view model.View) error {
	return f(ctx, view)
}

// Recorder persists completed battles.
type Recorder interface {
	RecordResult(ctx context.Context, record model.Record) error
}

// Options configures the sessions created by a Registry. Zero values fall back to the
// package defaults.
type Options struct {
	TickInterval  time.Duration
	Deadline      time.Duration
	RenderTimeout time.Duration
	DisplayLimit  int
	Rules         duel.Rules
	Renderer      Renderer
	Recorder      Recorder
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.Deadline <= 0 {
		o.Deadline = DefaultDeadline
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = DefaultRenderTimeout
	}
	if o.DisplayLimit <= 0 {
		o.DisplayLimit = DefaultDisplayLimit
	}
	if o.Rules.MaxExchanges <= 0 {
		o.Rules.MaxExchanges = duel.DefaultMaxExchanges
	}
	if o.Renderer == nil {
		o.Renderer = RendererFunc(func(context.Context, model.View) error { return nil })
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
