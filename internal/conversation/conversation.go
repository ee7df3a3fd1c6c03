package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const promptHistoryWindow = 10

// Utterance is one spoken line in the meeting. Immutable once recorded.
type Utterance struct {
	Speaker   string
	Text      string
	Timestamp time.Time
}

// State tracks per-bot turn-taking: bounded utterance history, response
// trigger keywords and the single in-flight-response lock. All methods are
// safe for concurrent use.
type State struct {
	botID    string
	botName  string
	triggers []string
	maxHist  int

	mu         sync.Mutex
	history    []Utterance
	responding bool
}

// NewState builds the conversation state for one bot. The trigger set is the
// configured keyword list plus the bot's own display name, lowercased.
func NewState(botID, botName string, triggerKeywords []string, maxHistory int) *State {
	triggers := make([]string, 0, len(triggerKeywords)+1)
	for _, kw := range triggerKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		triggers = append(triggers, kw)
	}
	if name := strings.ToLower(strings.TrimSpace(botName)); name != "" {
		triggers = append(triggers, name)
	}
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &State{
		botID:    botID,
		botName:  botName,
		triggers: triggers,
		maxHist:  maxHistory,
	}
}

func (s *State) BotID() string   { return s.botID }
func (s *State) BotName() string { return s.botName }

// AddUtterance records an utterance and evicts the oldest entries beyond the
// configured maximum.
func (s *State) AddUtterance(speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Utterance{Speaker: speaker, Text: text, Timestamp: time.Now()})
	if len(s.history) > s.maxHist {
		s.history = s.history[len(s.history)-s.maxHist:]
	}
}

// AddBotResponse records the bot's own reply in history.
func (s *State) AddBotResponse(text string) {
	s.AddUtterance(s.botName, text)
}

// ShouldRespond decides whether this utterance warrants a reply. It is always
// false while a response is already in flight; otherwise true when the
// lowercased text contains a trigger keyword or ends with a question marker.
func (s *State) ShouldRespond(speaker, text string) bool {
	s.mu.Lock()
	responding := s.responding
	s.mu.Unlock()
	if responding {
		return false
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	for _, trigger := range s.triggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}

	if strings.HasSuffix(lower, "？") || strings.HasSuffix(lower, "?") {
		return true
	}
	if strings.HasSuffix(lower, "か") || strings.HasSuffix(lower, "か。") {
		return true
	}
	return false
}

// SetResponding toggles the in-flight-response lock. Triggers arriving while
// the lock is held are dropped, never queued.
func (s *State) SetResponding(v bool) {
	s.mu.Lock()
	s.responding = v
	s.mu.Unlock()
}

// IsResponding reports whether a response pipeline is in flight.
func (s *State) IsResponding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responding
}

// History returns a copy of the recorded utterances, oldest first.
func (s *State) History() []Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Utterance, len(s.history))
	copy(out, s.history)
	return out
}

// BuildPrompt renders the recent history plus the current utterance into an
// instruction block asking the bot for a concise reply.
func (s *State) BuildPrompt(currentSpeaker, currentText string) string {
	s.mu.Lock()
	recent := s.history
	if len(recent) > promptHistoryWindow {
		recent = recent[len(recent)-promptHistoryWindow:]
	}
	lines := make([]string, 0, len(recent)+5)
	if len(recent) > 0 {
		lines = append(lines, "--- 会話履歴 ---")
		for _, u := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", u.Speaker, u.Text))
		}
	}
	s.mu.Unlock()

	lines = append(lines, "")
	lines = append(lines, "--- 最新の発言 ---")
	lines = append(lines, fmt.Sprintf("%s: %s", currentSpeaker, currentText))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("上記の発言に対して、%sとして簡潔に応答してください。", s.botName))

	return strings.Join(lines, "\n")
}
