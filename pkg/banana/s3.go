package banana

import "strings"

// DefaultRegion is where the upload bucket lives.
const DefaultRegion = "ap-northeast-2"

// ImageURL converts a durable s3:// reference into a browsable URL.
// http(s) URLs and anything that is not an S3 URI pass through untouched.
func ImageURL(uri string) string {
	return ImageURLInRegion(uri, DefaultRegion)
}

func ImageURLInRegion(uri, region string) string {
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	if !strings.HasPrefix(uri, "s3://") {
		return uri
	}

	trimmed := strings.TrimPrefix(uri, "s3://")
	bucket, key, _ := strings.Cut(trimmed, "/")
	return "https://" + bucket + ".s3." + region + ".amazonaws.com/" + key
}
