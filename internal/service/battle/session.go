package battle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

// DefaultCancelReason is shown when a participant cancels without a reason.
const DefaultCancelReason = "The battle has been cancelled."

// Session is a live negotiation between two participants scoped to a key.
//
// Every state change, including the ones made by the background ticker, happens under
// mu. Collaborators (renderer, recorder) are only called after mu is released.
type Session struct {
	id        string
	key       string
	startedAt time.Time
	opts      Options
	registry  *Registry
	baseCtx   context.Context

	mu       sync.Mutex
	a        *participant
	b        *participant
	state    model.State
	result   *model.Result
	reason   string
	revision uint64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSession(ctx context.Context, registry *Registry, key string, a, b model.Identity) *Session {
	return &Session{
		id:        uuid.NewString(),
		key:       key,
		startedAt: registry.opts.Now().UTC(),
		opts:      registry.opts,
		registry:  registry,
		baseCtx:   context.WithoutCancel(ctx),
		a:         newParticipant(a),
		b:         newParticipant(b),
		state:     model.StateProposing,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Key returns the scope key the session is registered under.
func (s *Session) Key() string { return s.key }

// StartedAt returns when the session entered the proposing state.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Done is closed once the session reached a terminal state and left the registry.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the resolved outcome once the session completed.
func (s *Session) Result() (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return model.Result{}, false
	}
	return *s.result, true
}

// Participants returns both identities in seat order.
func (s *Session) Participants() (model.Identity, model.Identity) {
	return s.a.identity, s.b.identity
}

// IsParticipant reports whether identity holds one of the two seats.
func (s *Session) IsParticipant(identity model.Identity) bool {
	return identity == s.a.identity || identity == s.b.identity
}

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// AddToProposal appends collectible to identity's proposal.
func (s *Session) AddToProposal(identity model.Identity, collectible model.Collectible) error {
	return s.update(identity, func(p *participant) error {
		if collectible.Owner != identity {
			return ErrNotOwner
		}
		return p.add(collectible)
	})
}

// RemoveFromProposal drops the collectible with the given id from identity's proposal.
func (s *Session) RemoveFromProposal(identity model.Identity, collectibleID string) error {
	return s.update(identity, func(p *participant) error {
		return p.remove(collectibleID)
	})
}

// AddAllOwned appends every item of owned that is not proposed yet and returns the items
// actually added. An empty return is not an error.
func (s *Session) AddAllOwned(identity model.Identity, owned []model.Collectible) ([]model.Collectible, error) {
	var added []model.Collectible
	err := s.update(identity, func(p *participant) error {
		added = p.addAll(owned)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Lock commits identity's proposal. When both sides are locked the battle is resolved
// synchronously and the result returned; otherwise the result is nil.
func (s *Session) Lock(identity model.Identity) (*model.Result, error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return nil, ErrInvalidState
	}
	p := s.participantLocked(identity)
	if p == nil {
		s.mu.Unlock()
		return nil, ErrNotAParticipant
	}
	if p.locked {
		s.mu.Unlock()
		return nil, ErrAlreadyLocked
	}
	p.locked = true

	if !s.a.locked || !s.b.locked {
		view := s.nextViewLocked()
		s.mu.Unlock()
		s.publish(view)
		return nil, nil
	}

	result := s.opts.Rules.Resolve(s.a.identity, s.b.identity, s.a.snapshot(), s.b.snapshot())
	s.result = &result
	s.finishLocked(model.StateCompleted, "")
	view := s.nextViewLocked()
	s.mu.Unlock()

	log.Printf("[battle] session=%s key=%s completed winner=%q rounds=%d", s.id, s.key, result.Winner, len(result.Rounds))
	s.afterFinish(view)
	return &result, nil
}

// Cancel ends a proposing session. It is a no-op on terminal sessions and reports
// whether this call performed the transition.
func (s *Session) Cancel(reason string) bool {
	if reason == "" {
		reason = DefaultCancelReason
	}
	return s.terminate(model.StateCancelled, reason)
}

// CancelBy cancels on behalf of a participant.
func (s *Session) CancelBy(identity model.Identity, reason string) error {
	if !s.IsParticipant(identity) {
		return ErrNotAParticipant
	}
	s.Cancel(reason)
	return nil
}

func (s *Session) update(identity model.Identity, fn func(p *participant) error) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrInvalidState
	}
	p := s.participantLocked(identity)
	if p == nil {
		s.mu.Unlock()
		return ErrNotAParticipant
	}
	if err := fn(p); err != nil {
		s.mu.Unlock()
		return err
	}
	view := s.nextViewLocked()
	s.mu.Unlock()

	s.publish(view)
	return nil
}

func (s *Session) participantLocked(identity model.Identity) *participant {
	switch identity {
	case s.a.identity:
		return s.a
	case s.b.identity:
		return s.b
	default:
		return nil
	}
}

// nextViewLocked bumps the revision for a view that is about to be published.
func (s *Session) nextViewLocked() model.View {
	s.revision++
	return s.viewLocked()
}

func (s *Session) viewLocked() model.View {
	view := model.View{
		SessionID: s.id,
		Key:       s.key,
		State:     s.state,
		Revision:  s.revision,
		A:         s.a.view(s.opts.DisplayLimit),
		B:         s.b.view(s.opts.DisplayLimit),
		StartedAt: s.startedAt,
		ExpiresAt: s.startedAt.Add(s.opts.Deadline),
		Reason:    s.reason,
	}
	if s.result != nil {
		result := *s.result
		view.Result = &result
	}
	return view
}

// finishLocked moves to a terminal state and stops the ticker. Callers hold mu and have
// checked the session is not terminal yet.
func (s *Session) finishLocked(state model.State, reason string) {
	s.state = state
	s.reason = reason
	s.stopOnce.Do(func() { close(s.stop) })
}

// terminate is the shared path for cancellation and timeouts.
func (s *Session) terminate(state model.State, reason string) bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.finishLocked(state, reason)
	view := s.nextViewLocked()
	s.mu.Unlock()

	log.Printf("[battle] session=%s key=%s %s: %s", s.id, s.key, state, reason)
	s.afterFinish(view)
	return true
}

// afterFinish runs exactly once per session, after the terminal transition.
func (s *Session) afterFinish(view model.View) {
	s.registry.release(s.key, s)

	if view.State == model.StateCompleted && view.Result != nil && s.opts.Recorder != nil {
		ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.RenderTimeout)
		record := model.Record{
			ID:         uuid.NewString(),
			SessionID:  s.id,
			Key:        s.key,
			PlayerA:    s.a.identity,
			PlayerB:    s.b.identity,
			Winner:     view.Result.Winner,
			WinsA:      view.Result.WinsA,
			WinsB:      view.Result.WinsB,
			Rounds:     view.Result.Rounds,
			FinishedAt: s.opts.Now().UTC(),
		}
		if err := s.opts.Recorder.RecordResult(ctx, record); err != nil {
			log.Printf("[battle] session=%s failed to record result: %v", s.id, err)
		}
		cancel()
	}

	s.publish(view)
	close(s.done)
}

// start publishes the opening view and launches the ticker.
func (s *Session) start() {
	s.mu.Lock()
	view := s.nextViewLocked()
	s.mu.Unlock()

	s.publish(view)
	go s.run()
}

func (s *Session) run() {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick reports whether the ticker should keep running.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	if s.opts.Now().Sub(s.startedAt) > s.opts.Deadline {
		s.mu.Unlock()
		s.terminate(model.StateTimedOut, ErrTimeout.Error())
		return false
	}
	view := s.nextViewLocked()
	s.mu.Unlock()

	if err := s.render(view); err != nil {
		log.Printf("[battle] session=%s render failed, expiring: %v", s.id, err)
		s.terminate(model.StateTimedOut, ErrRenderFailure.Error())
		return false
	}
	return true
}

func (s *Session) render(view model.View) error {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.RenderTimeout)
	defer cancel()
	return s.opts.Renderer.Render(ctx, view)
}

// publish renders outside the ticker; failures are only logged.
func (s *Session) publish(view model.View) {
	if err := s.render(view); err != nil {
		log.Printf("[battle] session=%s render revision=%d failed: %v", s.id, view.Revision, err)
	}
}
