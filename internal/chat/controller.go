// Package chat owns the conversation session state machine.
//
// The Controller mediates between user intents (send, restart, logout) and the
// negotiation backend. It follows an intent/apply dispatch model: intent
// methods mutate state synchronously under guard checks and return a closure
// that performs the network call; the caller runs the closure (typically off
// the event loop) and hands the result back to the matching Apply method.
// Every result carries the generation it was issued under, and Apply discards
// results whose generation no longer matches, so a restart or logout that
// happened while a call was outstanding wins over the stale response.
//
// All state mutation happens in the intent and Apply methods, so as long as
// those run on one event loop (the TUI update loop, or a sequential CLI
// command) the controller needs no locks.
//
// The controller enforces no timeout of its own: until a closure's result is
// applied it stays busy, and every intent is guarded out. Callers bound the
// underlying calls through the transport's HTTP timeout or the ctx they pass
// to the closure.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/buildmart/haggle/internal/api"
	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
)

// transportErrorMessage is shown for connectivity and protocol failures.
// Application-level rejections surface their backend message verbatim.
const transportErrorMessage = "network error, please try again"

// Controller drives one session's conversation.
//
// Acknowledged turns live in ack; while a send is in flight the optimistic
// user turn lives only in pending, so at most one unacknowledged turn can
// exist at any instant.
type Controller struct {
	backend api.Backend
	session domain.Session
	log     *logging.Logger

	gen     int
	ready   bool
	ended   bool
	busy    bool
	errMsg  string
	ack     []domain.Turn
	pending *domain.Turn
}

// InitResult is the outcome of the closure returned by Init or Restart.
type InitResult struct {
	gen  int
	snap *domain.Snapshot
	err  error
}

// SendResult is the outcome of the closure returned by Send.
type SendResult struct {
	gen  int
	snap *domain.Snapshot
	err  error
}

// New creates a controller for the given session. The session is fixed for
// the controller's lifetime; logging out discards the controller.
func New(backend api.Backend, session domain.Session, log *logging.Logger) *Controller {
	return &Controller{
		backend: backend,
		session: session,
		log:     log.Sub("chat"),
	}
}

// Init begins initialization and returns the closure that performs the start
// call. Returns nil when a request is already in flight (duplicate
// initializations are suppressed, not queued).
func (c *Controller) Init() func(ctx context.Context) InitResult {
	if c.busy {
		return nil
	}

	c.gen++
	c.busy = true
	c.ready = false
	c.ended = false
	c.errMsg = ""
	c.ack = nil
	c.pending = nil

	c.log.Debug().Int("gen", c.gen).Msg("initializing conversation")

	gen := c.gen
	token := c.session.Token
	return func(ctx context.Context) InitResult {
		snap, err := c.backend.Start(ctx, token)
		return InitResult{gen: gen, snap: snap, err: err}
	}
}

// ApplyInit applies the outcome of an Init or Restart closure. Stale results
// (issued under an older generation) are discarded.
func (c *Controller) ApplyInit(res InitResult) {
	if res.gen != c.gen {
		c.log.Debug().Int("gen", res.gen).Int("current", c.gen).Msg("discarding stale start result")
		return
	}

	c.busy = false
	c.ready = true

	if res.err != nil {
		// Degraded start: the UI unblocks with an empty transcript and a
		// visible error. Sends and restart stay available.
		c.ack = nil
		c.pending = nil
		c.errMsg = userErrorMessage(res.err)
		c.log.Warn().Err(res.err).Msg("initialization failed")
		return
	}

	c.ack = res.snap.Turns
	c.pending = nil
	c.ended = res.snap.Ended
	c.errMsg = ""

	c.log.Info().Int("turns", len(c.ack)).Bool("ended", c.ended).Msg("conversation ready")
}

// Send begins a message send and returns the closure that performs it. The
// trimmed text is appended to the transcript optimistically before the
// backend acknowledges. Returns nil (a silent no-op) when the text trims to
// empty, the controller is not ready, a request is in flight, or the
// conversation has ended.
func (c *Controller) Send(text string) func(ctx context.Context) SendResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !c.ready || c.busy || c.ended {
		return nil
	}

	turn := domain.UserTurn(trimmed)
	c.pending = &turn
	c.errMsg = ""
	c.busy = true

	c.log.Debug().Int("gen", c.gen).Int("len", len(trimmed)).Msg("sending turn")

	gen := c.gen
	token := c.session.Token
	return func(ctx context.Context) SendResult {
		snap, err := c.backend.SendMessage(ctx, token, trimmed)
		return SendResult{gen: gen, snap: snap, err: err}
	}
}

// ApplySend applies the outcome of a Send closure. On failure the optimistic
// turn is removed, restoring the last acknowledged transcript. On success a
// non-empty returned transcript replaces the local one (the backend is
// authoritative); an empty one means "no change" and the optimistic turn is
// kept.
func (c *Controller) ApplySend(res SendResult) {
	if res.gen != c.gen {
		c.log.Debug().Int("gen", res.gen).Int("current", c.gen).Msg("discarding stale send result")
		return
	}

	c.busy = false

	if res.err != nil {
		c.pending = nil
		c.errMsg = userErrorMessage(res.err)
		c.log.Warn().Err(res.err).Msg("send failed, optimistic turn rolled back")
		return
	}

	if len(res.snap.Turns) > 0 {
		c.ack = res.snap.Turns
	} else if c.pending != nil {
		c.ack = append(c.ack, *c.pending)
	}
	c.pending = nil
	c.ended = res.snap.Ended

	c.log.Debug().Int("turns", len(c.ack)).Bool("ended", c.ended).Msg("turn acknowledged")
}

// Restart discards the conversation and begins a fresh one. It returns a
// closure that calls start-new (best effort: a failure there is logged and
// the fresh start proceeds regardless) followed by start; the result feeds
// ApplyInit. Returns nil while a request is in flight. No send is
// serviceable between the start-new and the completion of the start.
func (c *Controller) Restart() func(ctx context.Context) InitResult {
	if c.busy {
		return nil
	}

	c.gen++
	c.busy = true
	c.ready = false
	c.ended = false
	c.errMsg = ""
	c.ack = nil
	c.pending = nil

	c.log.Info().Int("gen", c.gen).Msg("restarting conversation")

	gen := c.gen
	token := c.session.Token
	log := c.log
	return func(ctx context.Context) InitResult {
		if err := c.backend.StartNew(ctx, token); err != nil {
			log.Warn().Err(err).Msg("start-new failed, continuing with start")
		}
		snap, err := c.backend.Start(ctx, token)
		return InitResult{gen: gen, snap: snap, err: err}
	}
}

// Reset discards all in-memory conversation state (logout). Any outstanding
// call's eventual result is ignored rather than cancelled.
func (c *Controller) Reset() {
	c.gen++
	c.busy = false
	c.ready = false
	c.ended = false
	c.errMsg = ""
	c.ack = nil
	c.pending = nil

	c.log.Debug().Int("gen", c.gen).Msg("conversation state discarded")
}

// Ready reports whether initialization has completed (successfully or with a
// recovered error) and the controller accepts intents.
func (c *Controller) Ready() bool { return c.ready }

// Ended reports whether the backend declared the conversation terminal. Once
// true, sends are no-ops until a restart completes.
func (c *Controller) Ended() bool { return c.ended }

// Busy reports whether a request is in flight (initialization, send, or
// restart).
func (c *Controller) Busy() bool { return c.busy }

// ErrMessage returns the user-visible message from the most recent failure,
// or "" when the last operation succeeded.
func (c *Controller) ErrMessage() string { return c.errMsg }

// Session returns the session this controller was created for.
func (c *Controller) Session() domain.Session { return c.session }

// Transcript returns the rendered transcript: the last acknowledged turns
// plus the optimistic turn if a send is in flight. The returned slice is a
// copy.
func (c *Controller) Transcript() []domain.Turn {
	turns := make([]domain.Turn, 0, len(c.ack)+1)
	turns = append(turns, c.ack...)
	if c.pending != nil {
		turns = append(turns, *c.pending)
	}
	return turns
}

// userErrorMessage converts a transport or application error into the text
// shown to the user. Application errors keep their backend message verbatim.
func userErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return transportErrorMessage
}
