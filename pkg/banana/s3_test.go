package banana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURL(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"s3 uri", "s3://my-bucket/uploads/banana.png", "https://my-bucket.s3.ap-northeast-2.amazonaws.com/uploads/banana.png"},
		{"nested key", "s3://b/a/b/c.png", "https://b.s3.ap-northeast-2.amazonaws.com/a/b/c.png"},
		{"https passthrough", "https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"http passthrough", "http://cdn.example.com/x.png", "http://cdn.example.com/x.png"},
		{"relative passthrough", "/static/x.png", "/static/x.png"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL(tt.uri))
		})
	}
}

func TestImageURLInRegion(t *testing.T) {
	got := ImageURLInRegion("s3://bucket/key.png", "us-east-1")
	assert.Equal(t, "https://bucket.s3.us-east-1.amazonaws.com/key.png", got)
}
