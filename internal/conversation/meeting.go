package conversation

import (
	"fmt"
	"strings"
	"sync"
)

// Material is one uploaded reference document, already text-extracted.
type Material struct {
	Filename      string
	ExtractedText string
}

// MeetingState extends State with attached reference-material context for
// meeting-aware bots.
type MeetingState struct {
	*State
	meetingID string

	ctxMu            sync.Mutex
	materialsContext string
	maxMaterialChars int
}

func NewMeetingState(botID, meetingID, botName string, triggerKeywords []string, maxHistory, maxMaterialChars int) *MeetingState {
	if maxMaterialChars <= 0 {
		maxMaterialChars = 5000
	}
	return &MeetingState{
		State:            NewState(botID, botName, triggerKeywords, maxHistory),
		meetingID:        meetingID,
		maxMaterialChars: maxMaterialChars,
	}
}

func (m *MeetingState) MeetingID() string { return m.meetingID }

// MaterialsContext returns the assembled reference-material block.
func (m *MeetingState) MaterialsContext() string {
	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()
	return m.materialsContext
}

// BuildMaterialsContext concatenates per-document "[filename]\ncontent"
// blocks, truncating each document to the configured maximum with a marker.
// The result is stored and returned.
func (m *MeetingState) BuildMaterialsContext(materials []Material) string {
	var parts []string
	for _, mat := range materials {
		text := mat.ExtractedText
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > m.maxMaterialChars {
			text = string(runes[:m.maxMaterialChars]) + "\n...(省略)"
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", mat.Filename, text))
	}
	assembled := strings.Join(parts, "\n\n")

	m.ctxMu.Lock()
	m.materialsContext = assembled
	m.ctxMu.Unlock()
	return assembled
}

// BuildSystemPrompt combines the persona prompt, the attached materials and
// the meeting behavior rules into the live session's system instruction.
func (m *MeetingState) BuildSystemPrompt(personaPrompt string) string {
	parts := []string{personaPrompt}

	if ctx := m.MaterialsContext(); ctx != "" {
		parts = append(parts, "", "--- 添付資料 ---", ctx)
	}

	parts = append(parts,
		"",
		"--- 行動ルール ---",
		"1. 資料について質問されたら、添付資料に基づいて説明",
		"2. 資料に答えがある → [ANSWERED] を回答の先頭に付けて直接回答",
		"3. 判断が必要な事項（予算承認、方針決定等）→ [TAKEN_BACK]「持ち帰って確認します」",
		"4. 資料にない情報 →「確認して後日回答します」",
		"5. 2〜3文の簡潔な回答（音声読み上げのため）",
		"6. [ANSWERED] または [TAKEN_BACK] タグは必ず回答の先頭に付けること",
	)

	return strings.Join(parts, "\n")
}
