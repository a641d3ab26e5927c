package dialogue

import (
	"time"

	"github.com/havenlabs/haven/pkg/nlp"
)

// State is one stage of the supportive-dialogue flow. The set is closed;
// dispatch over it is exhaustive and anything else falls to the default
// handler without transitioning.
type State string

const (
	StateGreeting          State = "greeting"
	StateCheckingIn        State = "checking_in"
	StateExploringFeelings State = "exploring_feelings"
	StateProvidingSupport  State = "providing_support"
	StateCopingStrategies  State = "coping_strategies"
)

// Valid reports whether s is one of the defined dialogue states.
func (s State) Valid() bool {
	switch s {
	case StateGreeting, StateCheckingIn, StateExploringFeelings,
		StateProvidingSupport, StateCopingStrategies:
		return true
	}
	return false
}

// AnalysisSnapshot captures the classification and distress results computed
// for one turn. Stored alongside the turn for auditability.
type AnalysisSnapshot struct {
	Sentiment nlp.ClassificationResult `json:"sentiment"`
	Emotion   nlp.ClassificationResult `json:"emotion"`
	Toxicity  *nlp.ToxicityResult      `json:"toxicity,omitempty"`
	Distress  nlp.DistressResult       `json:"distress"`
}

// Turn is one message/reply exchange.
type Turn struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	UserMessage string           `json:"user_message"`
	BotReply    string           `json:"bot_reply"`
	Analysis    AnalysisSnapshot `json:"analysis"`
}

// Session is one user's live conversation. At most one exists per user ID;
// the manager serializes all mutation per user.
type Session struct {
	UserID       string            `json:"user_id"`
	State        State             `json:"state"`
	Step         int               `json:"step"`
	Context      map[string]string `json:"context,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	History      []Turn            `json:"history"`
}

// clone returns a copy that shares no mutable state with the receiver.
// Turns are immutable once appended, so the history copy is shallow.
func (s *Session) clone() *Session {
	out := *s
	if s.Context != nil {
		out.Context = make(map[string]string, len(s.Context))
		for k, v := range s.Context {
			out.Context[k] = v
		}
	}
	if s.History != nil {
		out.History = make([]Turn, len(s.History))
		copy(out.History, s.History)
	}
	return &out
}

// newSession creates a fresh session at the greeting state.
func newSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:       userID,
		State:        StateGreeting,
		Step:         0,
		Context:      make(map[string]string),
		CreatedAt:    now,
		LastActivity: now,
	}
}
