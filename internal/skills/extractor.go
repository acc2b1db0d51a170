// Package skills extracts canonical skill tokens from free job-description
// text by matching a fixed, case-insensitive vocabulary.
package skills

import (
	"fmt"
	"regexp"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

type vocabularyFile struct {
	Skills []string `yaml:"skills"`
}

// Extractor matches a skill vocabulary against free text. It is a pure
// matcher: extraction never fails, has no side effects, and an input with
// no matches yields an empty slice.
type Extractor struct {
	re *regexp.Regexp
}

// New builds an Extractor from a vocabulary list. Terms are matched
// case-insensitively and in list order, so longer terms must precede their
// prefixes (e.g. "JavaScript" before "Java") to win the overlap.
func New(vocabulary []string) (*Extractor, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("vocabulary must not be empty")
	}

	quoted := make([]string, 0, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	if len(quoted) == 0 {
		return nil, fmt.Errorf("vocabulary contains no usable terms")
	}

	re, err := regexp.Compile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile vocabulary pattern: %w", err)
	}
	return &Extractor{re: re}, nil
}

// Default returns an Extractor over the embedded vocabulary file.
func Default() (*Extractor, error) {
	var vf vocabularyFile
	if err := yaml.Unmarshal(defaultVocabulary, &vf); err != nil {
		return nil, fmt.Errorf("parse embedded vocabulary: %w", err)
	}
	return New(vf.Skills)
}

// Load parses a YAML vocabulary document (`skills: [..]`) and builds an
// Extractor from it, so deployments can extend the recognized set without
// touching aggregation logic.
func Load(raw []byte) (*Extractor, error) {
	var vf vocabularyFile
	if err := yaml.Unmarshal(raw, &vf); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	return New(vf.Skills)
}

// Extract returns the deduplicated, lower-cased skill tokens found in text,
// ordered by first occurrence.
func (e *Extractor) Extract(text string) []string {
	matches := e.re.FindAllString(text, -1)

	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		token := strings.ToLower(m)
		if seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}
