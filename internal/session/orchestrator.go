// Package session orchestrates conversations: session lifecycle, user
// message intake, staggered in-character replies, periodic behavior analysis
// and transcript compression on close.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/companion/internal/behavior"
	"github.com/hearthside/companion/internal/memory"
	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/progression"
	"github.com/hearthside/companion/internal/prompt"
	"github.com/hearthside/companion/internal/signal"
	"github.com/hearthside/companion/internal/state"
	"github.com/hearthside/companion/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
	ErrNoParticipants  = errors.New("session needs at least one known participant")
	ErrGroupTooSmall   = errors.New("group session needs at least two participants")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// Recaller retrieves long-term memories for a character.
type Recaller interface {
	Recall(ctx context.Context, characterID, query string) ([]types.RetrievedMemory, error)
}

// CharacterSaver persists roster entries.
type CharacterSaver interface {
	Save(ctx context.Context, c *types.Character) error
}

// SessionSaver persists sessions.
type SessionSaver interface {
	Save(ctx context.Context, sess *types.ChatSession) error
	Delete(ctx context.Context, id string) error
}

// Config wires an Orchestrator. Store, Analyzer, Engine and Prompts are
// required; everything else degrades gracefully when nil.
type Config struct {
	Store    *state.Store
	Analyzer *signal.Analyzer
	Engine   *progression.Engine
	Pipeline *behavior.Pipeline
	Prompts  *prompt.Builder

	Replies    models.TextGenerator
	Images     models.ImageGenerator
	Summarizer *memory.Summarizer
	Recaller   Recaller

	Characters CharacterSaver
	Sessions   SessionSaver

	HistoryLimit     int
	AnalysisInterval int
	SessionTTL       time.Duration
	SweepInterval    time.Duration
}

// Orchestrator coordinates sessions, reply workers and the expiry sweep.
type Orchestrator struct {
	store    *state.Store
	analyzer *signal.Analyzer
	engine   *progression.Engine
	pipeline *behavior.Pipeline
	prompts  *prompt.Builder

	replies    models.TextGenerator
	images     models.ImageGenerator
	summarizer *memory.Summarizer
	recaller   Recaller

	characters CharacterSaver
	sessions   SessionSaver

	historyLimit     int
	analysisInterval int
	sessionTTL       time.Duration
	sweepInterval    time.Duration

	now     func() time.Time
	delayFn func(i int) time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	wg   sync.WaitGroup
	done chan struct{}
	stop sync.Once
}

// New returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Analyzer == nil || cfg.Engine == nil || cfg.Prompts == nil {
		return nil, fmt.Errorf("store, analyzer, engine and prompts are required")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.AnalysisInterval <= 0 {
		cfg.AnalysisInterval = 6
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	o := &Orchestrator{
		store:            cfg.Store,
		analyzer:         cfg.Analyzer,
		engine:           cfg.Engine,
		pipeline:         cfg.Pipeline,
		prompts:          cfg.Prompts,
		replies:          cfg.Replies,
		images:           cfg.Images,
		summarizer:       cfg.Summarizer,
		recaller:         cfg.Recaller,
		characters:       cfg.Characters,
		sessions:         cfg.Sessions,
		historyLimit:     cfg.HistoryLimit,
		analysisInterval: cfg.AnalysisInterval,
		sessionTTL:       cfg.SessionTTL,
		sweepInterval:    cfg.SweepInterval,
		now:              time.Now,
		rng:              rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		done:             make(chan struct{}),
	}
	o.delayFn = o.staggerDelay
	return o, nil
}

// staggerDelay spaces replies out: a random lead of 500-2000ms plus one
// second per preceding speaker.
func (o *Orchestrator) staggerDelay(i int) time.Duration {
	o.rngMu.Lock()
	jitter := o.rng.IntN(1500)
	o.rngMu.Unlock()
	return time.Duration(500+jitter)*time.Millisecond + time.Duration(i)*time.Second
}

// CreateSession validates the participant list and creates a session. The
// list is filtered against the roster before any type rule applies; nothing
// is mutated on rejection.
func (o *Orchestrator) CreateSession(sessType types.SessionType, participantIDs []string, sceneContext string) (*types.ChatSession, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}
	known := o.store.KnownCharacterIDs(participantIDs)
	if len(known) == 0 {
		return nil, ErrNoParticipants
	}
	switch sessType {
	case types.SessionIndividual:
		known = known[:1]
	case types.SessionGroup:
		if len(known) < 2 {
			return nil, ErrGroupTooSmall
		}
	case types.SessionScene:
		// any participant count
	default:
		return nil, fmt.Errorf("unknown session type %q", sessType)
	}

	now := o.now()
	sess := &types.ChatSession{
		ID:             uuid.NewString(),
		Type:           sessType,
		ParticipantIDs: known,
		Context:        sceneContext,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.store.PutSession(sess)
	o.store.SetActiveSession(sess.ID)
	o.persistSession(sess.ID)
	return sess, nil
}

// SwitchSession points the focus at another existing session.
func (o *Orchestrator) SwitchSession(id string) error {
	if !o.store.SetActiveSession(id) {
		return ErrSessionNotFound
	}
	return nil
}

// ActiveSession returns the focused session, if any.
func (o *Orchestrator) ActiveSession() (*types.ChatSession, bool) {
	id := o.store.ActiveSessionID()
	if id == "" {
		return nil, false
	}
	return o.store.Session(id)
}

// CloseSession marks a session inactive and compresses its transcript in the
// background. Closing twice is a no-op.
func (o *Orchestrator) CloseSession(id string) error {
	sess, ok := o.store.Session(id)
	if !ok {
		return ErrSessionNotFound
	}
	if !sess.Active {
		return nil
	}
	o.store.MutateSession(id, func(s *types.ChatSession) {
		s.Active = false
		s.UpdatedAt = o.now()
	})
	o.persistSession(id)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.finishSession(id)
	}()
	return nil
}

// DeleteSession removes a session outright. In-flight reply tasks notice the
// missing session and discard their output.
func (o *Orchestrator) DeleteSession(id string) error {
	if !o.store.DeleteSession(id) {
		return ErrSessionNotFound
	}
	if o.sessions != nil {
		if err := o.sessions.Delete(context.Background(), id); err != nil {
			logPersistFailure("session delete", id, err)
		}
	}
	return nil
}

// Start launches the expiry sweep. Stop cancels it and waits for in-flight
// workers.
func (o *Orchestrator) Start() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-o.done:
				return
			case <-ticker.C:
				o.sweepExpired()
			}
		}
	}()
}

// Stop shuts the orchestrator down and waits for background work.
func (o *Orchestrator) Stop() {
	o.stop.Do(func() { close(o.done) })
	o.wg.Wait()
}

// sweepExpired closes active sessions idle past the TTL.
func (o *Orchestrator) sweepExpired() {
	cutoff := o.now().Add(-o.sessionTTL)
	for _, sess := range o.store.Sessions() {
		if !sess.Active || sess.UpdatedAt.After(cutoff) {
			continue
		}
		id := sess.ID
		o.store.MutateSession(id, func(s *types.ChatSession) {
			s.Active = false
		})
		o.persistSession(id)
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.finishSession(id)
		}()
	}
}
