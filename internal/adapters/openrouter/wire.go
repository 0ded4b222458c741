package openrouter

import "encoding/json"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
}

type chatRequest struct {
	Model            string           `json:"model"`
	Messages         []chatMessage    `json:"messages"`
	Modalities       []string         `json:"modalities,omitempty"`
	N                int              `json:"n,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type chatChoice struct {
	Message struct {
		Images []imageItem `json:"images"`
	} `json:"message"`
}

// imageItem is one entry of choices[*].message.images. Exactly one of the
// payload fields is expected to be set.
type imageItem struct {
	Type       string          `json:"type,omitempty"`
	B64JSON    string          `json:"b64_json,omitempty"`
	InlineData *inlineData     `json:"inlineData,omitempty"`
	ImageURL   json.RawMessage `json:"image_url,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// imageURLObject is the mapping form of image_url.
type imageURLObject struct {
	URL     string `json:"url"`
	B64JSON string `json:"b64_json"`
	Data    string `json:"data"`
}
