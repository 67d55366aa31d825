// Package restore wraps the external generative model that produces
// restored versions of damaged photographs. The model is an opaque
// collaborator: it receives image bytes plus an instruction prompt and
// answers with either a restored image or explanatory text (content-safety
// refusal, regional unavailability).
package restore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BaseInstruction is sent with every restoration request; user-supplied
// instructions are appended to it.
const BaseInstruction = "Restore this old photograph. Repair scratches, tears, creases and stains, " +
	"remove noise and color casts, and recover faded detail. Keep the subject, composition " +
	"and period character unchanged. Return only the restored image."

// Result is the model's answer: either image bytes (with mime type) or
// refusal text. Callers must handle both shapes.
type Result struct {
	Data     []byte
	MimeType string
	Text     string
}

// HasImage reports whether the model returned restored pixels.
func (r *Result) HasImage() bool {
	return len(r.Data) > 0
}

// Client is the restoration model contract consumed by the service layer.
type Client interface {
	Restore(ctx context.Context, image []byte, mimeType, instructions string) (*Result, error)
}

// HTTPClient talks to the generative image API over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey, model string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Wire format for the generation endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Restore sends the image with the base instruction plus any user
// instructions and decodes whichever response shape comes back. A refusal
// (text only, no image) is not an error here: the Result carries the text
// and the caller decides how to surface it.
func (c *HTTPClient) Restore(ctx context.Context, image []byte, mimeType, instructions string) (*Result, error) {
	prompt := BaseInstruction
	if instructions != "" {
		prompt += "\n\nAdditional instructions: " + instructions
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode model response (status %d): %w", res.StatusCode, err)
	}

	if res.StatusCode != http.StatusOK {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return nil, fmt.Errorf("model error (%s): %s", decoded.Error.Status, decoded.Error.Message)
		}
		return nil, fmt.Errorf("model returned status %d", res.StatusCode)
	}

	out := &Result{}
	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		out.Text = "blocked: " + decoded.PromptFeedback.BlockReason
	}
	for _, cand := range decoded.Candidates {
		for _, p := range cand.Content.Parts {
			switch {
			case p.InlineData != nil && p.InlineData.Data != "":
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode image data: %w", err)
				}
				out.Data = data
				out.MimeType = p.InlineData.MimeType
			case p.Text != "":
				if out.Text != "" {
					out.Text += " "
				}
				out.Text += p.Text
			}
		}
	}
	if out.MimeType == "" && out.HasImage() {
		out.MimeType = "image/png"
	}
	return out, nil
}
