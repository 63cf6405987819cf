package chat

// Transcript is the stored history of one user, as exposed to clients.
type Transcript struct {
	UserID string `json:"user_id"`
	Turns  []Turn `json:"turns"`
	Limit  int    `json:"limit"`
}
