package repository

import "context"

type AddConversationEntryInput struct {
	MeetingID string
	BotID     string
	Speaker   string
	Content   string
	Kind      EntryKind
	// Category is empty when the reply could not be classified.
	Category string
}

type ConversationRepository interface {
	AddConversationEntry(ctx context.Context, input AddConversationEntryInput) error
}

type MeetingRepository interface {
	UpdateBotStatus(ctx context.Context, meetingID, botID string, status BotStatus) error
	ListMaterials(ctx context.Context, meetingID string) ([]Material, error)
}

type Repository interface {
	ConversationRepository
	MeetingRepository
}
