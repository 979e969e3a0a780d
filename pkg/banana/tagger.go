package banana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const msgAnalysisFailed = "이미지 분석에 실패했습니다."

// DefaultTopN matches what the chat surface requests per uploaded image.
const DefaultTopN = 15

// Tagger calls the external image-tagging service. Analysis is slow
// (~10s), so callers are expected to run it in the background.
type Tagger struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTagger(baseURL string) *Tagger {
	return &Tagger{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type taggerRequest struct {
	TopN        int    `json:"top_n"`
	Base64Image string `json:"base64_image"`
}

type taggerResponse struct {
	Tags []string `json:"tags"`
}

// Analyze submits the raw file bytes and returns the top-N tags.
func (t *Tagger) Analyze(ctx context.Context, filePath string, topN int) ([]string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.New(msgAnalysisFailed)
	}

	payload, err := json.Marshal(taggerRequest{
		TopN:        topN,
		Base64Image: base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/api/v2/tagger/images", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTP.Do(req)
	if err != nil {
		return nil, errors.New(msgAnalysisFailed)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, normalizeError(body, msgAnalysisFailed)
	}

	var data taggerResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.New(msgAnalysisFailed)
	}
	if data.Tags == nil {
		return []string{}, nil
	}
	return data.Tags, nil
}
