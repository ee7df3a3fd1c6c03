package repository

import "time"

type BotStatus string

const (
	BotStatusJoining BotStatus = "joining"
	BotStatusJoined  BotStatus = "joined"
	BotStatusLeft    BotStatus = "left"
	BotStatusError   BotStatus = "error"
)

type EntryKind string

const (
	EntryKindBot         EntryKind = "bot"
	EntryKindParticipant EntryKind = "participant"
)

type ConversationEntry struct {
	ID        string
	MeetingID string
	BotID     string
	Speaker   string
	Content   string
	Kind      EntryKind
	Category  string
	CreatedAt time.Time
}

type Material struct {
	ID            string
	MeetingID     string
	Filename      string
	ExtractedText string
	CreatedAt     time.Time
}
