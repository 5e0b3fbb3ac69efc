package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-gw/beacon/pkg/api"
)

func TestBuildPayload_HistoryPrecedesCurrentTurn(t *testing.T) {
	p := BuildPayload(api.TaskRequest{
		Type: api.TaskChat,
		Text: "and now?",
		History: []api.Turn{
			{Role: "user", Text: "hi"},
			{Role: "assistant", Text: "hello"},
		},
	})

	require.Len(t, p.Messages, 3)
	assert.Equal(t, "user", p.Messages[0].Role)
	assert.Equal(t, "hi", p.Messages[0].Content.Text)
	assert.Equal(t, "assistant", p.Messages[1].Role)
	assert.Equal(t, "and now?", p.Messages[2].Content.Text)
}

func TestBuildPayload_ImageBecomesDataURLPart(t *testing.T) {
	p := BuildPayload(api.TaskRequest{
		Type:     api.TaskVision,
		Text:     "what is this?",
		Binary:   []byte{0xFF, 0xD8},
		MimeType: "image/jpeg",
	})

	require.Len(t, p.Messages, 1)
	parts := p.Messages[0].Content.Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "what is this?", parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Contains(t, parts[1].ImageURL.URL, "data:image/jpeg;base64,")
}

func TestBuildPayload_AudioUsesAudioPart(t *testing.T) {
	p := BuildPayload(api.TaskRequest{
		Type:     api.TaskAudio,
		Text:     "transcribe",
		Binary:   []byte{0x01},
		MimeType: "audio/mpeg",
	})

	parts := p.Messages[0].Content.Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "audio_url", parts[1].Type)
	require.NotNil(t, parts[1].AudioURL)
	assert.Nil(t, parts[1].ImageURL)
}

func TestContent_MarshalsStringOrParts(t *testing.T) {
	raw, err := json.Marshal(Message{Role: "user", Content: Content{Text: "plain"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"plain"}`, string(raw))

	raw, err = json.Marshal(Message{
		Role:    "user",
		Content: Content{Parts: []Part{{Type: "text", Text: "hi"}}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":[{"type":"text","text":"hi"}]}`, string(raw))
}

func TestEstimateTokens(t *testing.T) {
	p := Payload{
		Messages: []Message{
			{Role: "user", Content: Content{Text: "12345678"}}, // 8 chars
		},
	}
	// 8 prompt chars + 8 completion chars = 4 tokens
	assert.Equal(t, int64(4), EstimateTokens(p, "abcdefgh"))
}
