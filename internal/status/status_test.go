package status

import (
	"testing"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Paused(t *testing.T) {
	got := Classify([]string{"some output"}, true, true)
	assert.Equal(t, models.StatusPaused, got)
}

func TestClassify_Dead(t *testing.T) {
	got := Classify([]string{"some output"}, false, false)
	assert.Equal(t, models.StatusDead, got)
}

func TestClassify_PausedTakesPriorityOverDead(t *testing.T) {
	got := Classify(nil, true, false)
	assert.Equal(t, models.StatusPaused, got)
}

func TestClassify_Thinking(t *testing.T) {
	got := Classify([]string{"⠋ Thinking..."}, false, true)
	assert.Equal(t, models.StatusThinking, got)
}

func TestClassify_ActiveTool(t *testing.T) {
	got := Classify([]string{"Running command: ls -la"}, false, true)
	assert.Equal(t, models.StatusActive, got)
}

func TestClassify_IdleCostFooter(t *testing.T) {
	got := Classify([]string{"Done.", "1234 tokens · $0.02"}, false, true)
	assert.Equal(t, models.StatusIdle, got)
}

func TestClassify_WaitingYesNo(t *testing.T) {
	got := Classify([]string{"Do you want to proceed? (y/n)"}, false, true)
	assert.Equal(t, models.StatusWaiting, got)
}

func TestClassify_IdleStdinPrompt(t *testing.T) {
	got := Classify([]string{"some log line", "> "}, false, true)
	assert.Equal(t, models.StatusIdle, got)
}

func TestClassify_Error(t *testing.T) {
	got := Classify([]string{"traceback follows", "Exception: boom"}, false, true)
	assert.Equal(t, models.StatusError, got)
}

func TestClassify_ActiveTailHeuristic(t *testing.T) {
	got := Classify([]string{"just some normal output line"}, false, true)
	assert.Equal(t, models.StatusActive, got)
}

func TestClassify_IdleWhenTailEmpty(t *testing.T) {
	got := Classify([]string{"", "", "", "", ""}, false, true)
	assert.Equal(t, models.StatusIdle, got)
}

func TestClassify_StripsANSIBeforeMatching(t *testing.T) {
	got := Classify([]string{"\x1b[31mError:\x1b[0m something broke"}, false, true)
	assert.Equal(t, models.StatusError, got)
}

func TestClassify_Purity(t *testing.T) {
	lines := []string{"Running command: build"}
	a := Classify(lines, false, true)
	b := Classify(lines, false, true)
	assert.Equal(t, a, b)
}
