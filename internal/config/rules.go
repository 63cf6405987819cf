package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules overrides the built-in safety triage and topic guidance.
// Zero-valued fields keep the defaults of the consuming package.
type Rules struct {
	TriggerWords []string    `yaml:"trigger_words"`
	Topics       []TopicRule `yaml:"topics"`
	Replies      Replies     `yaml:"replies"`
}

// TopicRule maps one keyword to the guidance injected when it appears.
type TopicRule struct {
	Keyword  string `yaml:"keyword"`
	Guidance string `yaml:"guidance"`
}

// Replies holds the canned texts returned without an LLM answer.
type Replies struct {
	Safety   string `yaml:"safety"`
	Limit    string `yaml:"limit"`
	Fallback string `yaml:"fallback"`
}

// LoadRules 读取 YAML 规则文件；路径为空时返回空规则。
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Rules{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file %s: %w", path, err)
	}

	return ParseRules(raw)
}

// ParseRules decodes and validates a rules document.
func ParseRules(raw []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}

	words := rules.TriggerWords[:0]
	for _, word := range rules.TriggerWords {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	rules.TriggerWords = words

	for i, topic := range rules.Topics {
		if strings.TrimSpace(topic.Keyword) == "" {
			return Rules{}, fmt.Errorf("topic %d: keyword is required", i)
		}
		if strings.TrimSpace(topic.Guidance) == "" {
			return Rules{}, fmt.Errorf("topic %q: guidance is required", topic.Keyword)
		}
	}

	return rules, nil
}
