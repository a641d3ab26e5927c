package dialogue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/havenlabs/haven/pkg/nlp"
	"github.com/havenlabs/haven/pkg/telemetry"
)

// Manager drives one supportive conversation per user. Turns for the same
// user are serialized on a per-user mutex; turns for different users never
// share a lock. Distress detection runs before the state machine and an
// urgent result short-circuits it.
type Manager struct {
	store    SessionStore
	gateway  *nlp.Gateway
	detector *nlp.Detector
	tracker  *telemetry.Tracker

	maxHistory int

	userLocks sync.Map // user ID -> *sync.Mutex
}

// ManagerConfig configures the dialogue manager.
type ManagerConfig struct {
	// MaxHistory bounds the per-user turn log; 0 keeps it unbounded.
	MaxHistory int
}

// NewManager creates a dialogue manager over the given store and analyzers.
func NewManager(store SessionStore, gateway *nlp.Gateway, detector *nlp.Detector, cfg ManagerConfig, tracker *telemetry.Tracker) *Manager {
	return &Manager{
		store:      store,
		gateway:    gateway,
		detector:   detector,
		tracker:    tracker,
		maxHistory: cfg.MaxHistory,
	}
}

func (m *Manager) lockUser(userID string) *sync.Mutex {
	lock, _ := m.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu
}

// GetReply processes one message and returns the bot's reply. Internal
// failures never propagate: the caller gets a fixed supportive fallback and
// the session is left uncorrupted.
func (m *Manager) GetReply(ctx context.Context, userID, message string) string {
	mu := m.lockUser(userID)
	defer mu.Unlock()

	// Opportunistic expiry sweep before handling this user.
	if n, err := m.store.Sweep(ctx); err != nil {
		log.Printf("[WARN] session sweep failed: %v", err)
	} else if n > 0 {
		m.tracker.TrackN(telemetry.EventSessionSwept, int64(n))
	}

	session, err := m.store.Get(ctx, userID)
	if err != nil {
		log.Printf("[WARN] session load failed for %s: %v", userID, err)
		return FallbackReply
	}
	if session == nil {
		session = newSession(userID, time.Now())
	}

	// Classification and distress detection are read-only with respect to
	// session state, so they run concurrently.
	var analysis nlp.Analysis
	var distress nlp.DistressResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis = m.gateway.ClassifyAll(ctx, message)
	}()
	go func() {
		defer wg.Done()
		distress = m.detector.Detect(ctx, message)
	}()
	wg.Wait()

	snapshot := AnalysisSnapshot{
		Sentiment: analysis.Sentiment,
		Emotion:   analysis.Emotion,
		Toxicity:  analysis.Toxicity,
		Distress:  distress,
	}

	var reply string
	if distress.IsUrgent {
		// Crisis precedence: fixed reply, state and step untouched.
		reply = CrisisReply
		m.tracker.Track(telemetry.EventCrisisEscalation)
	} else {
		var nextState State
		var nextStep int
		reply, nextState, nextStep = m.handleState(session, snapshot)
		session.State = nextState
		session.Step = nextStep
	}

	m.appendTurn(session, message, reply, snapshot)
	session.LastActivity = time.Now()

	if err := m.store.Save(ctx, session); err != nil {
		log.Printf("[WARN] session save failed for %s: %v", userID, err)
		return FallbackReply
	}

	m.tracker.Track(telemetry.EventTurnProcessed)
	return reply
}

// handleState dispatches on the current state and returns the reply plus the
// next state and step. States outside the closed set get the default reply
// and no transition.
func (m *Manager) handleState(session *Session, snapshot AnalysisSnapshot) (string, State, int) {
	sentiment := snapshot.Sentiment
	emotion := snapshot.Emotion

	switch session.State {
	case StateGreeting:
		if isNegativeLabel(sentiment.Label) {
			return replyGreetingNegative, StateCheckingIn, 1
		}
		return replyGreetingDefault, StateCheckingIn, 1

	case StateCheckingIn:
		if isNegativeLabel(sentiment.Label) || isDifficultEmotion(emotion.Label) {
			return replyCheckingInNegative, StateExploringFeelings, 2
		}
		return replyCheckingInPositive, StateProvidingSupport, 2

	case StateExploringFeelings:
		return replyExploringFeelings, StateProvidingSupport, 3

	case StateProvidingSupport:
		if sentiment.Score > 0.7 {
			return replySupportIntense, StateCopingStrategies, 4
		}
		return replySupportDefault, StateCopingStrategies, 4

	case StateCopingStrategies:
		return replyCopingStrategies, StateCopingStrategies, session.Step

	default:
		return replyDefault, session.State, session.Step
	}
}

func isNegativeLabel(label string) bool {
	return label == "negative" || label == "neg"
}

func isDifficultEmotion(label string) bool {
	switch label {
	case "sadness", "anger", "fear":
		return true
	}
	return false
}

func (m *Manager) appendTurn(session *Session, message, reply string, snapshot AnalysisSnapshot) {
	session.History = append(session.History, Turn{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		UserMessage: message,
		BotReply:    reply,
		Analysis:    snapshot,
	})
	if m.maxHistory > 0 && len(session.History) > m.maxHistory {
		session.History = session.History[len(session.History)-m.maxHistory:]
	}
}

// GetHistory returns the last limit turns for a user, most recent last, as
// copies. limit <= 0 returns the whole retained history.
func (m *Manager) GetHistory(ctx context.Context, userID string, limit int) []Turn {
	mu := m.lockUser(userID)
	defer mu.Unlock()

	session, err := m.store.Get(ctx, userID)
	if err != nil {
		log.Printf("[WARN] history load failed for %s: %v", userID, err)
		return []Turn{}
	}
	if session == nil {
		return []Turn{}
	}

	history := session.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// ResetSession deletes a user's session and history. Resetting a missing
// session is a no-op.
func (m *Manager) ResetSession(ctx context.Context, userID string) error {
	mu := m.lockUser(userID)
	defer mu.Unlock()

	// The per-user mutex is kept: dropping it here could hand two
	// concurrent turns different locks for the same user.
	return m.store.Delete(ctx, userID)
}

// Stats reports store statistics.
func (m *Manager) Stats(ctx context.Context) (StoreStats, error) {
	return m.store.Stats(ctx)
}
