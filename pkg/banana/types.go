package banana

// Chat roles as rendered by the UI. The inference backend reports the
// assistant side as "model"; SessionEvents maps it before returning.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleAnalysis  = "analysis"
)

// ChatMessage is one entry of the transcript.
type ChatMessage struct {
	Role         string   `json:"role"`
	Content      string   `json:"content"`
	ImageURL     string   `json:"image_url,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Tags         []string `json:"tags,omitempty"` // analysis messages only
}

type SessionCreateResponse struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"created_at,omitempty"`
}

type SessionListItem struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ChatRunRequest struct {
	UserID              string                 `json:"user_id"`
	SessionID           string                 `json:"session_id"`
	UserMessage         string                 `json:"user_message"`
	Context             map[string]interface{} `json:"context,omitempty"`
	ImageUploadURL      string                 `json:"image_upload_url,omitempty"`
	ImageUploadMimeType string                 `json:"image_upload_mime_type,omitempty"`
}

// ChatRunResponse is the canonical send-message contract. The backend has
// historically also answered {session_id, response, metadata}; this client
// only supports the shape below.
type ChatRunResponse struct {
	ResponseMessage  string `json:"response_message"`
	ResponseImageURL string `json:"response_image_url"`
}

type uploadResponse struct {
	ImageUploadURI string `json:"image_upload_uri"`
	Message        string `json:"message"`
}

type sessionEventContent struct {
	Message             *string `json:"message"`
	ImageUploadURL      *string `json:"image_upload_url"`
	ImageUploadMimeType *string `json:"image_upload_mime_type"`
}

type sessionEvent struct {
	Role         string              `json:"role"` // "user" | "model"
	Content      sessionEventContent `json:"content"`
	ErrorMessage *string             `json:"error_message"`
}

type sessionEventsResponse struct {
	Events []sessionEvent `json:"events"`
}

// UploadResult is what a successful upload stages for the next message.
// PreviewPath is a local copy for immediate display and must be released
// with os.Remove (the orchestrator does this) once the image is cleared
// or sent.
type UploadResult struct {
	URI         string // durable storage reference (s3://...)
	PreviewPath string
	MimeType    string
	FileName    string
}
