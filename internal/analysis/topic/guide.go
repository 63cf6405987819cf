package topic

import "strings"

// Topic maps a keyword to the guidance injected when it appears in a message.
type Topic struct {
	Keyword  string
	Guidance string
}

// DefaultTopics is the built-in keyword mapping.
var DefaultTopics = []Topic{
	{Keyword: "anxiety", Guidance: anxietyGuidance},
	{Keyword: "anxious", Guidance: anxietyGuidance},
	{Keyword: "panic", Guidance: anxietyGuidance},
	{Keyword: "stress", Guidance: "The user feels stressed. Acknowledge the pressure, help them break the problem into small steps and suggest a short break."},
	{Keyword: "exam", Guidance: "The user is worried about exams or studies. Encourage a realistic study plan, regular rest and self-compassion about results."},
	{Keyword: "lonely", Guidance: "The user feels lonely. Respond warmly, remind them that reaching out takes courage and gently encourage contact with people they trust."},
	{Keyword: "sleep", Guidance: "The user mentions sleep problems. Offer gentle sleep hygiene tips such as a regular bedtime and less screen time before bed."},
	{Keyword: "breakup", Guidance: "The user is going through a breakup. Validate the grief, avoid judging the other person and focus on self-care."},
	{Keyword: "angry", Guidance: "The user feels angry. Stay calm, acknowledge the anger without judgment and suggest healthy ways to release it."},
}

const anxietyGuidance = "The user mentions anxiety. Validate the feeling and offer one simple grounding technique, such as slow breathing or the 5-4-3-2-1 exercise."

// Guide finds guidance for the topics a message touches.
type Guide struct {
	topics []Topic
}

// NewGuide builds a guide; an empty list falls back to DefaultTopics.
func NewGuide(topics []Topic) *Guide {
	if len(topics) == 0 {
		topics = DefaultTopics
	}

	g := &Guide{}
	for _, t := range topics {
		keyword := strings.ToLower(strings.TrimSpace(t.Keyword))
		guidance := strings.TrimSpace(t.Guidance)
		if keyword == "" || guidance == "" {
			continue
		}
		g.topics = append(g.topics, Topic{Keyword: keyword, Guidance: guidance})
	}
	return g
}

// Lookup returns the guidance for every matching keyword, in declaration
// order and without duplicates.
func (g *Guide) Lookup(message string) []string {
	normalized := strings.ToLower(message)
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	var guidance []string
	seen := make(map[string]struct{})
	for _, t := range g.topics {
		if !strings.Contains(normalized, t.Keyword) {
			continue
		}
		if _, ok := seen[t.Guidance]; ok {
			continue
		}
		seen[t.Guidance] = struct{}{}
		guidance = append(guidance, t.Guidance)
	}
	return guidance
}

// Topics returns a copy of the configured mapping.
func (g *Guide) Topics() []Topic {
	return append([]Topic(nil), g.topics...)
}
