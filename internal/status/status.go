// Package status implements the StatusDetector (C3): a pure function that
// classifies an agent session's scrollback text into a finite status set.
package status

import (
	"regexp"
	"strings"

	"github.com/daedalos/daedalos/internal/models"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes terminal escape sequences so content matching operates
// on plain text.
func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

var spinnerGlyphs = []string{
	"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
	"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷",
}

var longTaskMarkers = []string{
	"thinking", "working", "generating", "processing…", "processing...",
}

var toolMarkers = []string{
	"<tool_use>", "<tool_call>", "[tool]", "running command", "reading file", "writing file", "executing",
}

var costFooterMarkers = []string{
	"tokens", "$0.", "context left", "cost:", "ctx left",
}

var yesNoPromptMarkers = []string{
	"(y/n)", "[y/n]", "yes/no", "(yes/no)", "do you want to proceed",
}

var stdinPromptMarkers = []string{
	">", "› ", "$ ",
}

var errorWords = []string{
	"error", "failed", "panic", "exception", "permission denied",
}

// Classify determines an agent's status from its most recent scrollback
// lines, whether its session is paused, and whether the session itself
// still exists. Rules are evaluated in priority order; the first match
// wins.
func Classify(lines []string, paused, sessionExists bool) models.Status {
	if paused {
		return models.StatusPaused
	}
	if !sessionExists {
		return models.StatusDead
	}

	clean := make([]string, len(lines))
	for i, l := range lines {
		clean[i] = stripANSI(l)
	}
	tail := clean
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	joined := strings.ToLower(strings.Join(tail, "\n"))

	if containsAny(joined, spinnerGlyphs) || containsAny(joined, longTaskMarkers) {
		return models.StatusThinking
	}
	if containsAny(joined, toolMarkers) {
		return models.StatusActive
	}
	if containsAny(joined, costFooterMarkers) {
		return models.StatusIdle
	}
	if containsAny(joined, yesNoPromptMarkers) {
		return models.StatusWaiting
	}
	if lastNonEmptyEndsWithPrompt(clean) {
		return models.StatusIdle
	}
	if containsAny(joined, errorWords) {
		return models.StatusError
	}

	last5 := clean
	if len(last5) > 5 {
		last5 = last5[len(last5)-5:]
	}
	if anyNonEmpty(last5) {
		return models.StatusActive
	}
	return models.StatusIdle
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func lastNonEmptyEndsWithPrompt(lines []string) bool {
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		for _, marker := range stdinPromptMarkers {
			if strings.HasSuffix(trimmed, marker) || trimmed == strings.TrimSpace(marker) {
				return true
			}
		}
		return false
	}
	return false
}

func anyNonEmpty(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
