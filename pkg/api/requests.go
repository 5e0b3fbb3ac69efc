package api

// ChatRequest is the HTTP body of POST /v1/chat.
type ChatRequest struct {
	Text        string  `json:"text" binding:"required"`
	History     []Turn  `json:"history,omitempty" binding:"omitempty,max=50,dive"`
	Provider    string  `json:"provider,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" binding:"omitempty,min=1"`
	Temperature float64 `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
}

// TranslateRequest is the HTTP body of POST /v1/translate.
type TranslateRequest struct {
	Text       string `json:"text" binding:"required"`
	SourceLang string `json:"source_lang" binding:"required"`
	TargetLang string `json:"target_lang" binding:"required"`
	Provider   string `json:"provider,omitempty"`
}

// SummarizeRequest is the HTTP body of POST /v1/summarize.
type SummarizeRequest struct {
	Text      string `json:"text" binding:"required"`
	MaxLength int    `json:"max_length,omitempty" binding:"omitempty,min=1"`
	Provider  string `json:"provider,omitempty"`
}

// TranscribeRequest is the HTTP body of POST /v1/audio/transcriptions.
// Audio is base64 encoded.
type TranscribeRequest struct {
	Audio    string `json:"audio" binding:"required"`
	Language string `json:"language,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// TranscribeResponse carries the transcript, or the failure that prevented one.
type TranscribeResponse struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// AnalyzeImageRequest is the HTTP body of POST /v1/images/analyze.
// Image is base64 encoded.
type AnalyzeImageRequest struct {
	Image    string `json:"image" binding:"required"`
	Prompt   string `json:"prompt" binding:"required"`
	MimeType string `json:"mime_type,omitempty"`
}
