package gateway

import (
	"strings"

	"github.com/beacon-gw/beacon/pkg/api"
)

// offlineRule maps keywords to a canned answer. Rules are ordered; the first
// match wins.
type offlineRule struct {
	keywords []string
	answer   string
}

// OfflineResponder produces deterministic canned answers. It is the terminal
// fallback: used when no credentials are configured, or when every provider
// attempt has failed. It never errors.
type OfflineResponder struct {
	rules    map[api.TaskType][]offlineRule
	fallback map[api.TaskType]string
}

func NewOfflineResponder() *OfflineResponder {
	return &OfflineResponder{
		rules: map[api.TaskType][]offlineRule{
			api.TaskChat: {
				{
					keywords: []string{"hello", "hi ", "hey"},
					answer:   "Hello! I am running in offline mode right now, so my answers are limited. Please try again in a few minutes.",
				},
				{
					keywords: []string{"help", "support"},
					answer:   "I cannot reach the assistant service at the moment. For urgent matters, please contact support directly.",
				},
				{
					keywords: []string{"price", "cost", "how much"},
					answer:   "I cannot look up pricing right now. Please check the listing page or try again shortly.",
				},
				{
					keywords: []string{"thank"},
					answer:   "You're welcome! Note that I'm currently offline, so follow-up answers may be limited.",
				},
			},
			api.TaskTranslate: {
				{
					keywords: []string{"hello", "hi "},
					answer:   "Translation is temporarily unavailable. Short greetings usually translate well with any dictionary app in the meantime.",
				},
			},
		},
		fallback: map[api.TaskType]string{
			api.TaskChat:      "I'm sorry, the assistant is temporarily unavailable. Please try again shortly.",
			api.TaskTranslate: "Translation is temporarily unavailable. Please try again shortly.",
			api.TaskSummarize: "Summarization is temporarily unavailable. Please try again shortly.",
			api.TaskVision:    "Image understanding is temporarily unavailable. Please try again shortly.",
			api.TaskAudio:     "Audio transcription is temporarily unavailable. Please try again shortly.",
		},
	}
}

// Answer scans the lower-cased input against the task's rule table; if no
// keyword matches it returns the task's generic message.
func (o *OfflineResponder) Answer(task api.TaskType, text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range o.rules[task] {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.answer
			}
		}
	}
	if msg, ok := o.fallback[task]; ok {
		return msg
	}
	return "No answer is available right now. Please try again shortly."
}
