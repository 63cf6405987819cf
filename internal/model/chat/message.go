package chat

import "time"

// Role tags the origin of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message exchanged in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReplyKind tells the client how a reply was produced.
type ReplyKind string

const (
	// KindReply is an answer generated by the LLM provider.
	KindReply ReplyKind = "reply"
	// KindSafety is the canned redirect sent when a trigger word is present.
	KindSafety ReplyKind = "safety"
	// KindLimit is sent once the user's history is full.
	KindLimit ReplyKind = "limit"
	// KindFallback replaces the answer when the provider call fails.
	KindFallback ReplyKind = "fallback"
)

// Reply is the outcome of relaying one user message.
type Reply struct {
	UserID  string    `json:"user_id"`
	Content string    `json:"response"`
	Kind    ReplyKind `json:"kind"`
	Turns   int       `json:"turns"`
}
