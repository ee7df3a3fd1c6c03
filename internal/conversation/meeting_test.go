package conversation

import (
	"strings"
	"testing"
)

func TestBuildMaterialsContext_FormatsAndJoins(t *testing.T) {
	m := NewMeetingState("bot-1", "meeting-1", "Avatar", nil, 20, 5000)
	got := m.BuildMaterialsContext([]Material{
		{Filename: "budget.pdf", ExtractedText: "予算案の内容"},
		{Filename: "plan.docx", ExtractedText: "計画の内容"},
	})

	if !strings.Contains(got, "[budget.pdf]\n予算案の内容") {
		t.Fatalf("expected filename block:\n%s", got)
	}
	if !strings.Contains(got, "\n\n[plan.docx]") {
		t.Fatalf("expected blank line between documents:\n%s", got)
	}
	if m.MaterialsContext() != got {
		t.Fatal("expected assembled context to be stored")
	}
}

func TestBuildMaterialsContext_TruncatesLongDocument(t *testing.T) {
	m := NewMeetingState("bot-1", "meeting-1", "Avatar", nil, 20, 10)
	got := m.BuildMaterialsContext([]Material{
		{Filename: "long.pdf", ExtractedText: "あいうえおかきくけこさしすせそ"},
	})

	if !strings.Contains(got, "あいうえおかきくけこ\n...(省略)") {
		t.Fatalf("expected truncation marker:\n%s", got)
	}
	if strings.Contains(got, "さしすせそ") {
		t.Fatalf("expected content beyond limit dropped:\n%s", got)
	}
}

func TestBuildMaterialsContext_SkipsEmptyDocuments(t *testing.T) {
	m := NewMeetingState("bot-1", "meeting-1", "Avatar", nil, 20, 5000)
	got := m.BuildMaterialsContext([]Material{
		{Filename: "empty.pdf", ExtractedText: ""},
	})
	if got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestBuildSystemPrompt_IncludesPersonaMaterialsAndRules(t *testing.T) {
	m := NewMeetingState("bot-1", "meeting-1", "Avatar", nil, 20, 5000)
	m.BuildMaterialsContext([]Material{
		{Filename: "budget.pdf", ExtractedText: "予算案"},
	})
	prompt := m.BuildSystemPrompt("あなたはAvatarです。")

	if !strings.HasPrefix(prompt, "あなたはAvatarです。") {
		t.Fatalf("expected persona first:\n%s", prompt)
	}
	if !strings.Contains(prompt, "--- 添付資料 ---") {
		t.Fatalf("expected materials section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "--- 行動ルール ---") {
		t.Fatalf("expected behavior rules:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[ANSWERED]") || !strings.Contains(prompt, "[TAKEN_BACK]") {
		t.Fatalf("expected tagging instructions:\n%s", prompt)
	}
}

func TestBuildSystemPrompt_NoMaterialsSection(t *testing.T) {
	m := NewMeetingState("bot-1", "meeting-1", "Avatar", nil, 20, 5000)
	prompt := m.BuildSystemPrompt("あなたはAvatarです。")
	if strings.Contains(prompt, "--- 添付資料 ---") {
		t.Fatalf("expected no materials section without materials:\n%s", prompt)
	}
}
