package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beacon-gw/beacon/pkg/api"
)

func TestAnswer_KeywordMatch(t *testing.T) {
	o := NewOfflineResponder()

	answer := o.Answer(api.TaskChat, "HELLO, anyone there?")
	assert.Contains(t, answer, "offline mode")

	answer = o.Answer(api.TaskChat, "how much does shipping cost?")
	assert.Contains(t, answer, "pricing")
}

func TestAnswer_FirstRuleWins(t *testing.T) {
	o := NewOfflineResponder()

	// matches both the greeting and the help rule; greeting is listed first
	answer := o.Answer(api.TaskChat, "hello, I need help")
	assert.Contains(t, answer, "offline mode")
}

func TestAnswer_TaskFallback(t *testing.T) {
	o := NewOfflineResponder()

	assert.Contains(t, o.Answer(api.TaskSummarize, "summarize this article"), "Summarization")
	assert.Contains(t, o.Answer(api.TaskVision, "describe"), "Image understanding")
}

func TestAnswer_Deterministic(t *testing.T) {
	o := NewOfflineResponder()

	first := o.Answer(api.TaskChat, "what is the meaning of life?")
	second := o.Answer(api.TaskChat, "what is the meaning of life?")
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestAnswer_UnknownTask(t *testing.T) {
	o := NewOfflineResponder()
	assert.NotEmpty(t, o.Answer(api.TaskType("poetry"), "write a poem"))
}
