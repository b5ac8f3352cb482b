package chat

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message body cannot be empty")
	ErrSelfConversation     = errors.New("cannot open a conversation with yourself")
)
