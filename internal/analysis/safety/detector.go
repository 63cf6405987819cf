package safety

import "strings"

// DefaultTriggerWords are phrases that redirect the user to professional help.
var DefaultTriggerWords = []string{"suicide", "self-harm", "kill myself", "hurt me"}

// Match reports which trigger word was found in a message.
type Match struct {
	Trigger string
}

// Detector checks user messages against a fixed list of trigger words.
type Detector struct {
	triggers []string
	lowered  []string
}

// NewDetector builds a detector; an empty list falls back to DefaultTriggerWords.
func NewDetector(triggers []string) *Detector {
	if len(triggers) == 0 {
		triggers = DefaultTriggerWords
	}

	d := &Detector{}
	for _, word := range triggers {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		d.triggers = append(d.triggers, word)
		d.lowered = append(d.lowered, strings.ToLower(word))
	}
	return d
}

// Detect 对原始消息做大小写不敏感的子串匹配，返回第一个命中的触发词。
func (d *Detector) Detect(message string) (Match, bool) {
	normalized := strings.ToLower(message)
	for i, word := range d.lowered {
		if strings.Contains(normalized, word) {
			return Match{Trigger: d.triggers[i]}, true
		}
	}
	return Match{}, false
}

// Triggers returns a copy of the configured trigger words.
func (d *Detector) Triggers() []string {
	return append([]string(nil), d.triggers...)
}
