package banana

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "banana.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o644))
	return path
}

func TestUploadStagesFileAndPreview(t *testing.T) {
	var gotUserID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bucket/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotUserID = r.FormValue("user_id")
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "banana.png", header.Filename)
		w.Write([]byte(`{"image_upload_uri":"s3://bucket/banana.png","message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.Upload(context.Background(), writeTempImage(t), "user-1")
	require.NoError(t, err)
	defer os.Remove(result.PreviewPath)

	assert.Equal(t, "user-1", gotUserID)
	assert.Equal(t, "s3://bucket/banana.png", result.URI)
	assert.Equal(t, "image/png", result.MimeType)
	assert.Equal(t, "banana.png", result.FileName)

	preview, err := os.ReadFile(result.PreviewPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a png"), preview)
}

func TestUploadSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"파일이 너무 큽니다."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Upload(context.Background(), writeTempImage(t), "user-1")
	require.EqualError(t, err, "파일이 너무 큽니다.")
}

func TestUploadFallbackMessageOnGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Upload(context.Background(), writeTempImage(t), "user-1")
	require.EqualError(t, err, "이미지 업로드에 실패했습니다.")
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/create", r.URL.Path)
		w.Write([]byte(`{"session_id":"sess-1","user_id":"user-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	created, err := c.CreateSession(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", created.SessionID)
}

func TestCreateSessionRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id":"user-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateSession(context.Background(), "user-1")
	require.EqualError(t, err, "세션 생성에 실패했습니다.")
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/run", r.URL.Path)
		w.Write([]byte(`{"response_message":"그렸습니다.","response_image_url":"s3://bucket/out.png"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.SendMessage(context.Background(), ChatRunRequest{
		UserID:      "user-1",
		SessionID:   "sess-1",
		UserMessage: "바나나 그려줘",
	})
	require.NoError(t, err)
	assert.Equal(t, "그렸습니다.", resp.ResponseMessage)
	assert.Equal(t, "s3://bucket/out.png", resp.ResponseImageURL)
}

func TestSendMessageFallbackOnTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.SendMessage(context.Background(), ChatRunRequest{UserMessage: "hi"})
	require.EqualError(t, err, "메시지 전송에 실패했습니다.")
}

func TestSessionEventsMapsModelRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/events/sess-1", r.URL.Path)
		w.Write([]byte(`{"events":[
			{"role":"user","content":{"message":"hi","image_upload_url":"s3://bucket/in.png"}},
			{"role":"model","content":{"message":"hello"},"error_message":null}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	messages, err := c.SessionEvents(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "s3://bucket/in.png", messages[0].ImageURL)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
}

func TestSessionEventsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	messages, err := c.SessionEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListSessionsWrappedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		w.Write([]byte(`{"sessions":[{"session_id":"s1","user_id":"user-1","created_at":"2026-01-01"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sessions, err := c.ListSessions(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].SessionID)
}

func TestListSessionsBareArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"session_id":"s1","user_id":"user-1","created_at":"2026-01-01"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sessions, err := c.ListSessions(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestListSessionsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no sessions"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sessions, err := c.ListSessions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
