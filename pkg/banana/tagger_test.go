package banana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaggerAnalyze(t *testing.T) {
	imagePath := writeTempImage(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/tagger/images", r.URL.Path)
		var req taggerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 15, req.TopN)
		decoded, err := base64.StdEncoding.DecodeString(req.Base64Image)
		require.NoError(t, err)
		assert.Equal(t, []byte("not really a png"), decoded)
		w.Write([]byte(`{"tags":["banana","fruit"]}`))
	}))
	defer srv.Close()

	tagger := NewTagger(srv.URL)
	tags, err := tagger.Analyze(context.Background(), imagePath, 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "fruit"}, tags)
}

func TestTaggerAnalyzeMissingFile(t *testing.T) {
	tagger := NewTagger("http://127.0.0.1:1")
	_, err := tagger.Analyze(context.Background(), "/nonexistent/banana.png", 15)
	require.EqualError(t, err, "이미지 분석에 실패했습니다.")
}

func TestTaggerAnalyzeNullTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tags":null}`))
	}))
	defer srv.Close()

	tagger := NewTagger(srv.URL)
	tags, err := tagger.Analyze(context.Background(), writeTempImage(t), 15)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestTaggerAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"tagger down"}`))
	}))
	defer srv.Close()

	tagger := NewTagger(srv.URL)
	_, err := tagger.Analyze(context.Background(), writeTempImage(t), 15)
	require.EqualError(t, err, "tagger down")
}
