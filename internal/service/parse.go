package service

import (
	"strings"
	"unicode"

	"github.com/sakif/ideaforge/internal/model"
)

const (
	maxTaskContent = 200
	maxTagName     = 50
	maxTaskTags    = 3
	maxGoalLines   = 5
)

// generatedTask is one element of the task generation schema.
type generatedTask struct {
	Content     string   `json:"content"`
	Criticality int      `json:"criticality"`
	Tags        []string `json:"tags"`
}

type tasksOutput struct {
	Tasks []generatedTask `json:"tasks"`
}

// normalizeTasks cleans model output before it is persisted.
func normalizeTasks(in []generatedTask) []generatedTask {
	out := make([]generatedTask, 0, len(in))
	for _, t := range in {
		content := truncateRunes(strings.TrimSpace(t.Content), maxTaskContent)
		if content == "" {
			continue
		}
		crit := t.Criticality
		if crit < model.CriticalityLow {
			crit = model.CriticalityLow
		}
		if crit > model.CriticalityHigh {
			crit = model.CriticalityHigh
		}
		out = append(out, generatedTask{Content: content, Criticality: crit, Tags: normalizeTags(t.Tags)})
	}
	return out
}

func normalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	tags := make([]string, 0, maxTaskTags)
	for _, name := range in {
		name = truncateRunes(strings.TrimSpace(name), maxTagName)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, name)
		if len(tags) == maxTaskTags {
			break
		}
	}
	return tags
}

func tagsFromNames(names []string) []model.Tag {
	tags := make([]model.Tag, len(names))
	for i, n := range names {
		tags[i] = model.Tag{Name: n}
	}
	return tags
}

// parseGoalLines returns at most five goal titles, one per SMART category
// in order.
func parseGoalLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxGoalLines {
			break
		}
	}
	return lines
}

// stripListMarker removes "1.", "1)", "-", "*" and "•" prefixes.
func stripListMarker(line string) string {
	for _, bullet := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(strings.TrimPrefix(line, bullet))
		}
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

// parseLegalSteps keeps the numbered lines of text. The description is the
// text after the first space, so "1. Register the company" becomes
// "Register the company".
func parseLegalSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		_, desc, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		if desc = strings.TrimSpace(desc); desc != "" {
			steps = append(steps, desc)
		}
	}
	return steps
}

func splitKeywords(text string) []string {
	var keywords []string
	for _, k := range strings.Split(text, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// splitImprovedEmail separates the "Subject: ...\n\nContent: ..." reply of
// the improve_email prompt.
func splitImprovedEmail(text, fallbackSubject string) (subject, content string) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	head, body, ok := strings.Cut(text, "\n\n")
	if !ok {
		return fallbackSubject, trimLabel(text, "Content:")
	}
	subject = trimLabel(head, "Subject:")
	if subject == "" {
		subject = fallbackSubject
	}
	return subject, trimLabel(body, "Content:")
}

func trimLabel(s, label string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
		s = s[len(label):]
	}
	return strings.TrimSpace(s)
}
