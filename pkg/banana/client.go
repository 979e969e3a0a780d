package banana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// User-facing fallback messages, used whenever the backend error body is
// missing or malformed so the UI never renders an empty error.
const (
	msgUploadFailed   = "이미지 업로드에 실패했습니다."
	msgSessionFailed  = "세션 생성에 실패했습니다."
	msgSendFailed     = "메시지 전송에 실패했습니다."
	msgEventsFailed   = "이벤트를 불러올 수 없습니다."
	msgSessionsFailed = "세션 목록을 불러올 수 없습니다."
)

// Client talks to the remote inference backend. It is stateless; every
// method maps one UI intent to one HTTP call.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// normalizeError turns a non-2xx body into a single presentable string.
func normalizeError(body []byte, fallback string) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return errors.New(eb.Error)
		}
		if eb.Message != "" {
			return errors.New(eb.Message)
		}
	}
	return errors.New(fallback)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, fallback string) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, errors.New(fallback)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, normalizeError(body, fallback)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, path string, fallback string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, errors.New(fallback)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, normalizeError(body, fallback)
	}
	return body, resp.StatusCode, nil
}

// Upload stages an image file in the backend bucket and writes a local
// preview copy. The caller owns the preview file and must release it.
func (c *Client) Upload(ctx context.Context, filePath, userID string) (*UploadResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.New(msgUploadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/bucket/upload", &buf)
	if err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.New(msgUploadFailed)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, normalizeError(body, msgUploadFailed)
	}

	var data uploadResponse
	if err := json.Unmarshal(body, &data); err != nil || data.ImageUploadURI == "" {
		return nil, errors.New(msgUploadFailed)
	}

	previewPath, err := writePreview(filePath)
	if err != nil {
		return nil, errors.New(msgUploadFailed)
	}

	return &UploadResult{
		URI:         data.ImageUploadURI,
		PreviewPath: previewPath,
		MimeType:    mimeTypeOf(filePath),
		FileName:    filepath.Base(filePath),
	}, nil
}

// writePreview copies the file into the temp dir so the staged image stays
// displayable after the original handle is gone.
func writePreview(filePath string) (string, error) {
	src, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "banana-preview-*"+filepath.Ext(filePath))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func mimeTypeOf(filePath string) string {
	if t := mime.TypeByExtension(filepath.Ext(filePath)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// CreateSession opens a new conversation for the user.
func (c *Client) CreateSession(ctx context.Context, userID string) (*SessionCreateResponse, error) {
	body, _, err := c.postJSON(ctx, "/sessions/create", map[string]string{"user_id": userID}, msgSessionFailed)
	if err != nil {
		return nil, err
	}
	var data SessionCreateResponse
	if err := json.Unmarshal(body, &data); err != nil || data.SessionID == "" {
		return nil, errors.New(msgSessionFailed)
	}
	return &data, nil
}

// SendMessage runs one chat turn against the image pipeline.
func (c *Client) SendMessage(ctx context.Context, req ChatRunRequest) (*ChatRunResponse, error) {
	body, _, err := c.postJSON(ctx, "/images/run", req, msgSendFailed)
	if err != nil {
		return nil, err
	}
	var data ChatRunResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.New(msgSendFailed)
	}
	return &data, nil
}

// SessionEvents fetches the stored history of a session as transcript
// entries. A 404 means the session has no events yet and yields an empty
// slice, not an error.
func (c *Client) SessionEvents(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	body, status, err := c.get(ctx, "/sessions/events/"+url.PathEscape(sessionID), msgEventsFailed)
	if err != nil {
		if status == http.StatusNotFound {
			return []ChatMessage{}, nil
		}
		return nil, err
	}

	var data sessionEventsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.New(msgEventsFailed)
	}

	messages := make([]ChatMessage, 0, len(data.Events))
	for _, event := range data.Events {
		role := event.Role
		if role == "model" {
			role = RoleAssistant
		}
		msg := ChatMessage{Role: role}
		if event.Content.Message != nil {
			msg.Content = *event.Content.Message
		}
		if event.Content.ImageUploadURL != nil {
			msg.ImageURL = *event.Content.ImageUploadURL
		}
		if event.ErrorMessage != nil {
			msg.ErrorMessage = *event.ErrorMessage
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ListSessions returns the user's session summaries. The backend answers
// either {sessions: [...]} or a bare array; 404 yields an empty slice.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]SessionListItem, error) {
	body, status, err := c.get(ctx, "/sessions/list?user_id="+url.QueryEscape(userID), msgSessionsFailed)
	if err != nil {
		if status == http.StatusNotFound {
			return []SessionListItem{}, nil
		}
		return nil, err
	}

	var wrapped struct {
		Sessions []SessionListItem `json:"sessions"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Sessions != nil {
		return wrapped.Sessions, nil
	}
	var bare []SessionListItem
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	return []SessionListItem{}, nil
}
