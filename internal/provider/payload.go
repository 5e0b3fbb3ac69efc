package provider

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/beacon-gw/beacon/pkg/api"
)

// Payload is the provider-agnostic body of one upstream call. The model
// field is filled per descriptor at send time.
type Payload struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Message is one chat turn on the wire.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content is the union type the upstream contract uses: a plain string for
// text-only turns, a part list for multimodal ones.
type Content struct {
	Text  string
	Parts []Part
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Parts)
	}
	return json.Unmarshal(data, &c.Text)
}

type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *MediaURL `json:"image_url,omitempty"`
	AudioURL *MediaURL `json:"audio_url,omitempty"`
}

type MediaURL struct {
	URL string `json:"url"`
}

// BuildPayload converts a normalized task request into wire messages.
// History precedes the current turn; binary payloads become a data URL part
// next to the text part.
func BuildPayload(req api.TaskRequest) Payload {
	p := Payload{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	for _, turn := range req.History {
		p.Messages = append(p.Messages, Message{
			Role:    turn.Role,
			Content: Content{Text: turn.Text},
		})
	}

	if len(req.Binary) == 0 {
		p.Messages = append(p.Messages, Message{
			Role:    "user",
			Content: Content{Text: req.Text},
		})
		return p
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.MimeType, base64.StdEncoding.EncodeToString(req.Binary))

	parts := []Part{{Type: "text", Text: req.Text}}
	if req.Type == api.TaskAudio {
		parts = append(parts, Part{Type: "audio_url", AudioURL: &MediaURL{URL: dataURL}})
	} else {
		parts = append(parts, Part{Type: "image_url", ImageURL: &MediaURL{URL: dataURL}})
	}

	p.Messages = append(p.Messages, Message{
		Role:    "user",
		Content: Content{Parts: parts},
	})
	return p
}

// EstimateTokens is the rough accounting figure recorded per success: one
// token per four characters of prompt and completion.
func EstimateTokens(p Payload, completion string) int64 {
	chars := len(completion)
	for _, m := range p.Messages {
		chars += len(m.Content.Text)
		for _, part := range m.Content.Parts {
			chars += len(part.Text)
		}
	}
	return int64(chars / 4)
}
