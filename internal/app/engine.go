package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quizduel/internal/domain"
)

const (
	countdownInterval = time.Second
	pollInterval      = 2 * time.Second

	defaultLocalID   = "player1"
	defaultLocalName = "Shurik"
)

var defaultOpponentNames = []string{"Balbes", "Byvaly", "Trus"}

// EngineConfig wires the collaborators of a match engine.
type EngineConfig struct {
	Generator QuestionGenerator
	Scorer    AnswerScorer
	Progress  ProgressSource
	Topics    TopicPicker
	Clock     clockwork.Clock
	Logger    *zerolog.Logger
	Settings  domain.Settings

	// LocalID identifies the participant driven by this engine.
	LocalID string
	// RemoteIDs fixes the remote participants; when empty they are derived from Settings.NumberOfPlayers.
	RemoteIDs []string
	// MatchID pins the match identifier (a shared lobby); when empty every Begin gets a fresh one.
	MatchID string
}

// Engine owns a single match: lifecycle, countdown, opponent polling and progression.
// All state is guarded by mu; ticker and poller callbacks serialize through it.
type Engine struct {
	generator QuestionGenerator
	scorer    AnswerScorer
	progress  ProgressSource
	topics    TopicPicker
	clock     clockwork.Clock
	log       zerolog.Logger

	localID     string
	remoteIDs   []string
	lobbyID     string
	pendingName string

	countdownTask *scheduledTask
	pollTask      *scheduledTask

	mu           sync.RWMutex
	matchID      string
	startedAt    time.Time
	epoch        uint64
	matchCtx     context.Context
	cancelMatch  context.CancelFunc
	state        domain.LifecycleState
	settings     domain.Settings
	questions    []domain.Question
	index        int
	order        []string
	participants map[string]*domain.Participant
	countdown    domain.Countdown
	history      []domain.HistoryEntry
	loading      bool
	submitting   bool
	reviewing    bool
	subscribers  map[chan domain.Snapshot]struct{}
}

func NewEngine(cfg EngineConfig) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := log.With().Str("component", "engine").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	settings := cfg.Settings
	if settings == (domain.Settings{}) {
		settings = domain.DefaultSettings()
	}
	topics := cfg.Topics
	if topics == nil {
		topics = NewRandomTopicPicker(nil)
	}
	localID := cfg.LocalID
	if localID == "" {
		localID = defaultLocalID
	}

	e := &Engine{
		generator:    cfg.Generator,
		scorer:       cfg.Scorer,
		progress:     cfg.Progress,
		topics:       topics,
		clock:        clock,
		log:          logger,
		localID:      localID,
		remoteIDs:    NormalizeRemoteIDs(localID, cfg.RemoteIDs),
		lobbyID:      cfg.MatchID,
		state:        domain.StateIdle,
		settings:     settings,
		participants: make(map[string]*domain.Participant),
		countdown:    domain.Countdown{Remaining: settings.QuestionTimeLimit},
		subscribers:  make(map[chan domain.Snapshot]struct{}),
	}
	e.countdownTask = newScheduledTask(clock, countdownInterval, e.tick)
	e.pollTask = newScheduledTask(clock, pollInterval, e.poll)
	e.seedParticipantsLocked()
	return e
}

// LocalID returns the participant ID this engine plays as.
func (e *Engine) LocalID() string {
	return e.localID
}

// Begin starts a new match from Idle or Configuring. It blocks while questions load;
// the countdown and the opponent poller start once the match is Active.
func (e *Engine) Begin(ctx context.Context) error {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return domain.ErrLoading
	}
	if !e.state.CanTransitionTo(domain.StateActive) {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("begin from %s: %w", state, domain.ErrInvalidTransition)
	}
	e.stopTimersLocked()
	e.epoch++
	epoch := e.epoch
	e.loading = true
	e.clearMatchLocked()
	e.seedParticipantsLocked()
	e.startedAt = e.clock.Now()
	count := e.settings.QuestionCount
	e.broadcastLocked()
	e.mu.Unlock()

	questions := e.loadQuestions(ctx, count)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		e.log.Info().Msg("match reset while loading questions, discarding")
		return fmt.Errorf("match reset while loading: %w", domain.ErrInvalidTransition)
	}
	e.loading = false
	e.questions = questions
	e.index = 0
	e.matchID = e.lobbyID
	if e.matchID == "" {
		e.matchID = uuid.NewString()
	}
	e.matchCtx, e.cancelMatch = context.WithCancel(context.Background())
	e.state = domain.StateActive
	e.startCountdownLocked()
	e.startPollingLocked()

	e.log.Info().
		Str("match_id", e.matchID).
		Int("questions", len(e.questions)).
		Int("participants", len(e.order)).
		Int("time_limit", e.settings.QuestionTimeLimit).
		Msg("match started")
	e.broadcastLocked()
	return nil
}

// OpenSettings moves Idle to Configuring.
func (e *Engine) OpenSettings() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.StateIdle || e.loading {
		return fmt.Errorf("open settings from %s: %w", e.state, domain.ErrInvalidTransition)
	}
	e.state = domain.StateConfiguring
	e.broadcastLocked()
	return nil
}

// CloseSettings moves Configuring back to Idle.
func (e *Engine) CloseSettings() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.StateConfiguring {
		return fmt.Errorf("close settings from %s: %w", e.state, domain.ErrInvalidTransition)
	}
	e.state = domain.StateIdle
	e.broadcastLocked()
	return nil
}

// UpdateSettings replaces the settings. Only valid before a match starts.
func (e *Engine) UpdateSettings(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.StateIdle && e.state != domain.StateConfiguring {
		return fmt.Errorf("update settings in %s: %w", e.state, domain.ErrInvalidTransition)
	}
	if e.loading {
		return domain.ErrLoading
	}
	e.settings = settings
	e.countdown = domain.Countdown{Remaining: settings.QuestionTimeLimit}
	e.seedParticipantsLocked()
	e.broadcastLocked()
	return nil
}

// SetPlayerName renames the local participant; blank names are ignored. During a
// match, and after it, the name only takes effect at the next Begin.
func (e *Engine) SetPlayerName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingName = name
	if e.state != domain.StateIdle && e.state != domain.StateConfiguring {
		return
	}
	if p, ok := e.participants[e.localID]; ok {
		p.DisplayName = name
	}
	e.broadcastLocked()
}

// Reset returns to Idle from any state, tearing down timers and zeroing all stats.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimersLocked()
	e.epoch++
	e.loading = false
	prev := e.state
	e.state = domain.StateIdle
	e.clearMatchLocked()
	for _, p := range e.participants {
		p.ResetStats()
	}
	if e.pendingName != "" {
		e.local().DisplayName = e.pendingName
	}
	e.log.Info().Str("from", prev.String()).Msg("match reset")
	e.broadcastLocked()
}

// Close stops all timers and closes subscriber channels.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimersLocked()
	e.epoch++
	if e.cancelMatch != nil {
		e.cancelMatch()
		e.cancelMatch = nil
	}
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every mutation batch.
// The caller must invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	ch <- e.snapshotLocked()
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) broadcastLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest pending snapshot so a slow observer never blocks the engine
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	participants := make([]domain.Participant, 0, len(e.order))
	for _, id := range e.order {
		participants = append(participants, *e.participants[id])
	}
	selected := 0
	for _, h := range e.history {
		if h.Flagged {
			selected++
		}
	}
	return domain.Snapshot{
		MatchID:           e.matchID,
		State:             e.state,
		Settings:          e.settings,
		Questions:         append([]domain.Question(nil), e.questions...),
		CurrentIndex:      e.index,
		LocalID:           e.localID,
		Participants:      participants,
		Countdown:         e.countdown,
		CountdownProgress: e.countdown.Progress(e.settings.QuestionTimeLimit),
		StartedAt:         e.startedAt,
		Polling:           e.pollTask.Active(),
		Loading:           e.loading || e.submitting,
		LoadingQuestions:  e.loading,
		Submitting:        e.submitting,
		History:           append([]domain.HistoryEntry(nil), e.history...),
		Reviewing:         e.reviewing,
		SelectedCount:     selected,
	}
}

func (e *Engine) clearMatchLocked() {
	if e.cancelMatch != nil {
		e.cancelMatch()
		e.cancelMatch = nil
	}
	e.matchCtx = nil
	e.matchID = ""
	e.startedAt = time.Time{}
	e.questions = nil
	e.index = 0
	e.history = nil
	e.submitting = false
	e.reviewing = false
	e.countdown = domain.Countdown{Remaining: e.settings.QuestionTimeLimit}
}

// seedParticipantsLocked rebuilds the participant table with zeroed stats.
func (e *Engine) seedParticipantsLocked() {
	localName := defaultLocalName
	if e.pendingName != "" {
		localName = e.pendingName
	}
	remotes := NormalizeRemoteIDs(e.localID, e.remoteIDs)
	if len(remotes) == 0 {
		for n := 2; len(remotes) < e.settings.NumberOfPlayers-1; n++ {
			id := fmt.Sprintf("player%d", n)
			if id == e.localID {
				continue
			}
			remotes = append(remotes, id)
		}
	}

	e.order = append([]string{e.localID}, remotes...)
	e.participants = make(map[string]*domain.Participant, len(e.order))
	e.participants[e.localID] = &domain.Participant{ID: e.localID, DisplayName: localName}
	for i, id := range remotes {
		name := id
		if i < len(defaultOpponentNames) {
			name = defaultOpponentNames[i]
		}
		e.participants[id] = &domain.Participant{ID: id, DisplayName: name}
	}
}

// NormalizeRemoteIDs trims ids and drops blanks, duplicates and the local ID.
func NormalizeRemoteIDs(localID string, ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == localID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (e *Engine) local() *domain.Participant {
	return e.participants[e.localID]
}

func (e *Engine) stopTimersLocked() {
	e.stopCountdownLocked()
	e.stopPollingLocked()
}

// concludeLocked is the only way into Concluded; both timers stop unconditionally.
func (e *Engine) concludeLocked() {
	e.stopTimersLocked()
	if e.cancelMatch != nil {
		e.cancelMatch()
		e.cancelMatch = nil
	}
	e.state = domain.StateConcluded

	ev := e.log.Info().Str("match_id", e.matchID)
	for _, id := range e.order {
		ev = ev.Float64(id, e.participants[id].Score)
	}
	ev.Msg("match concluded")
}
