// Package chat coordinates the lifecycle of a chat surface: composing,
// uploading, and sending turns against the inference backend, including the
// hand-off of a first message across the new-chat → session-page transition.
package chat

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"giga-banana-web/pkg/authstate"
	"giga-banana-web/pkg/banana"
)

const msgLoginRequired = "로그인이 필요합니다."

// TopicSessionCreated is published on the in-process bus once a freshly
// created session is expected to be visible in list queries.
const TopicSessionCreated = "chat.session.created"

// DefaultSessionReadyDelay is how long to wait before announcing a new
// session. The backend materializes sessions lazily; listing immediately
// after create can miss the new one. This is a heuristic, not a guarantee.
const DefaultSessionReadyDelay = 2 * time.Second

// SessionCreatedEvent is the payload carried on TopicSessionCreated.
type SessionCreatedEvent struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// Gateway is the slice of the inference backend the orchestrator needs.
type Gateway interface {
	Upload(ctx context.Context, filePath, userID string) (*banana.UploadResult, error)
	CreateSession(ctx context.Context, userID string) (*banana.SessionCreateResponse, error)
	SendMessage(ctx context.Context, req banana.ChatRunRequest) (*banana.ChatRunResponse, error)
	SessionEvents(ctx context.Context, sessionID string) ([]banana.ChatMessage, error)
	ListSessions(ctx context.Context, userID string) ([]banana.SessionListItem, error)
}

type Tagger interface {
	Analyze(ctx context.Context, filePath string, topN int) ([]string, error)
}

// Navigator moves the UI to a session page. The orchestrator only initiates
// the transition; the destination constructs its own orchestrator.
type Navigator interface {
	Navigate(sessionID string)
}

type NavigatorFunc func(sessionID string)

func (f NavigatorFunc) Navigate(sessionID string) { f(sessionID) }

type Logger interface {
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// UploadedImage is the image staged for the next outgoing message.
// SourcePath keeps the original file reachable for background tagging.
type UploadedImage struct {
	URI         string
	PreviewPath string
	MimeType    string
	FileName    string
	SourcePath  string
}

// AnalysisState tracks the background tagging pipeline for the currently
// staged image.
type AnalysisState struct {
	Analyzing bool
	Tags      []string
	Err       string
}

// Deps is everything an orchestrator needs, wired explicitly so tests can
// substitute any piece. Auth and Pending are process-wide shared instances.
type Deps struct {
	Gateway   Gateway
	Tagger    Tagger
	Auth      *authstate.Store
	Pending   *PendingStore
	Publisher message.Publisher
	Navigator Navigator
	Logger    Logger

	// OnSessionCreated fires as soon as the session id is known, before
	// the pending message is written.
	OnSessionCreated func(sessionID string)

	// SessionReadyDelay overrides DefaultSessionReadyDelay (tests shrink it).
	SessionReadyDelay time.Duration

	// AnalysisTopN overrides banana.DefaultTopN.
	AnalysisTopN int
}

// Orchestrator is a stateful controller for one chat surface. All state is
// behind one mutex; network calls run outside it.
type Orchestrator struct {
	deps Deps

	mu          sync.Mutex
	sessionID   string
	messages    []banana.ChatMessage
	sending     bool
	uploading   bool
	errMsg      string
	uploaded    *UploadedImage
	analysis    AnalysisState
	analysisGen uint64
	pendingDone bool
	wg          sync.WaitGroup
}

// NewOrchestrator builds the controller for the new-chat surface: no session
// exists until the first send.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// NewSessionOrchestrator builds the controller for an existing session page.
// Call ConsumePending afterwards to complete a hand-off, if one is waiting.
func NewSessionOrchestrator(deps Deps, sessionID string) *Orchestrator {
	return &Orchestrator{deps: deps, sessionID: sessionID}
}

// --- snapshot accessors ---

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Messages returns a copy of the transcript in append order.
func (o *Orchestrator) Messages() []banana.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]banana.ChatMessage, len(o.messages))
	copy(out, o.messages)
	return out
}

func (o *Orchestrator) Sending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sending
}

func (o *Orchestrator) Uploading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.uploading
}

func (o *Orchestrator) Err() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errMsg
}

func (o *Orchestrator) UploadedImage() *UploadedImage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploaded == nil {
		return nil
	}
	img := *o.uploaded
	return &img
}

func (o *Orchestrator) Analysis() AnalysisState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.analysis
	if state.Tags != nil {
		state.Tags = append([]string(nil), state.Tags...)
	}
	return state
}

// Wait blocks until background work (analysis, session broadcast) settles.
// Intended for tests and orderly shutdown, not for UI paths.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// --- operations ---

// UploadFile stages a file for the next message and kicks off background
// tagging. Tagging failures never fail the upload; they surface only through
// Analysis().Err.
func (o *Orchestrator) UploadFile(ctx context.Context, filePath string) *banana.UploadResult {
	user := o.deps.Auth.User()
	if user == nil {
		o.setErr(msgLoginRequired)
		return nil
	}

	o.mu.Lock()
	o.uploading = true
	o.errMsg = ""
	o.analysisGen++
	gen := o.analysisGen
	o.analysis = AnalysisState{Analyzing: true}
	o.mu.Unlock()

	result, err := o.deps.Gateway.Upload(ctx, filePath, user.ID)
	if err != nil {
		o.mu.Lock()
		o.uploading = false
		o.errMsg = err.Error()
		// Nothing is staged, so the analysis tracker goes back to idle,
		// not to an error state.
		o.analysis = AnalysisState{}
		o.mu.Unlock()
		return nil
	}

	o.mu.Lock()
	o.releaseUploadedLocked()
	o.uploaded = &UploadedImage{
		URI:         result.URI,
		PreviewPath: result.PreviewPath,
		MimeType:    result.MimeType,
		FileName:    result.FileName,
		SourcePath:  filePath,
	}
	o.uploading = false
	o.mu.Unlock()

	o.wg.Add(1)
	go o.analyze(gen, filePath)

	return result
}

// analyze runs the tagging request and applies the result only if no newer
// upload or clear has happened since it started.
func (o *Orchestrator) analyze(gen uint64, filePath string) {
	defer o.wg.Done()

	topN := o.deps.AnalysisTopN
	if topN <= 0 {
		topN = banana.DefaultTopN
	}

	// In-flight requests are not cancelled on unmount; stale results are
	// rejected by generation below.
	tags, err := o.deps.Tagger.Analyze(context.Background(), filePath, topN)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.analysisGen {
		return
	}
	if err != nil {
		if o.deps.Logger != nil {
			o.deps.Logger.Warn("Chat", "Image analysis failed", map[string]interface{}{"error": err.Error()})
		}
		o.analysis = AnalysisState{Err: err.Error()}
		return
	}
	o.analysis = AnalysisState{Tags: tags}
}

// ClearUploadedImage drops the staged image, releases its preview file, and
// invalidates any in-flight analysis.
func (o *Orchestrator) ClearUploadedImage() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.releaseUploadedLocked()
	o.analysisGen++
	o.analysis = AnalysisState{}
}

func (o *Orchestrator) releaseUploadedLocked() {
	if o.uploaded == nil {
		return
	}
	if o.uploaded.PreviewPath != "" {
		os.Remove(o.uploaded.PreviewPath)
	}
	o.uploaded = nil
}

// SendMessage sends one turn. Empty content is a silent no-op. Transport
// errors never escape; they land in Err().
func (o *Orchestrator) SendMessage(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	user := o.deps.Auth.User()
	if user == nil {
		o.setErr(msgLoginRequired)
		return
	}

	o.mu.Lock()
	if o.sessionID == "" {
		// New chat: capture the durable image reference, drop the staged
		// image (the composer is free for the next turn), then hand the
		// message off to the destination page.
		img := o.captureImageLocked()
		o.sending = true
		o.errMsg = ""
		o.mu.Unlock()
		o.startNewSession(ctx, user, content, img)
		return
	}

	img := o.captureImageLocked()
	o.sending = true
	o.errMsg = ""
	o.mu.Unlock()

	o.exchange(ctx, user.ID, content, img)
}

// captureImageLocked detaches the durable reference of the staged image and
// releases the local preview.
func (o *Orchestrator) captureImageLocked() *PendingImage {
	if o.uploaded == nil {
		return nil
	}
	img := &PendingImage{URI: o.uploaded.URI, MimeType: o.uploaded.MimeType}
	if img.MimeType == "" {
		img.MimeType = "image/jpeg"
	}
	o.releaseUploadedLocked()
	o.analysisGen++
	o.analysis = AnalysisState{}
	return img
}

// startNewSession creates the session, parks the message for the session
// page, and initiates navigation. The transcript is not touched here; the
// destination orchestrator appends it when consuming the pending message.
func (o *Orchestrator) startNewSession(ctx context.Context, user *authstate.User, content string, img *PendingImage) {
	created, err := o.deps.Gateway.CreateSession(ctx, user.ID)
	if err != nil {
		o.mu.Lock()
		o.sending = false
		o.errMsg = err.Error()
		o.mu.Unlock()
		return
	}

	o.mu.Lock()
	o.sessionID = created.SessionID
	o.mu.Unlock()

	if o.deps.OnSessionCreated != nil {
		o.deps.OnSessionCreated(created.SessionID)
	}

	if o.deps.Pending != nil {
		o.deps.Pending.Set(PendingMessage{Content: content, Image: img})
	}
	if o.deps.Navigator != nil {
		o.deps.Navigator.Navigate(created.SessionID)
	}

	// Announce the session once the backend has had time to materialize it
	// in list queries.
	o.wg.Add(1)
	go func(sessionID, userID string) {
		defer o.wg.Done()
		delay := o.deps.SessionReadyDelay
		if delay <= 0 {
			delay = DefaultSessionReadyDelay
		}
		time.Sleep(delay)
		o.publishSessionCreated(sessionID, userID)
	}(created.SessionID, user.ID)

	o.mu.Lock()
	o.sending = false
	o.mu.Unlock()
}

func (o *Orchestrator) publishSessionCreated(sessionID, userID string) {
	if o.deps.Publisher == nil {
		return
	}
	payload, err := json.Marshal(SessionCreatedEvent{SessionID: sessionID, UserID: userID})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := o.deps.Publisher.Publish(TopicSessionCreated, msg); err != nil && o.deps.Logger != nil {
		o.deps.Logger.Warn("Chat", "Failed to publish session-created event", map[string]interface{}{"error": err.Error()})
	}
}

// exchange performs the optimistic append / send / confirm-or-rollback cycle
// shared by direct sends and pending-message delivery.
func (o *Orchestrator) exchange(ctx context.Context, userID, content string, img *PendingImage) {
	userMsg := banana.ChatMessage{
		Role:      banana.RoleUser,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if img != nil {
		userMsg.ImageURL = img.URI
	}

	o.mu.Lock()
	o.messages = append(o.messages, userMsg)
	sessionID := o.sessionID
	o.mu.Unlock()

	req := banana.ChatRunRequest{
		UserID:      userID,
		SessionID:   sessionID,
		UserMessage: content,
	}
	if img != nil {
		req.ImageUploadURL = img.URI
		req.ImageUploadMimeType = img.MimeType
	}

	resp, err := o.deps.Gateway.SendMessage(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sending = false
	if err != nil {
		// Roll back the optimistic entry; at most the trailing one.
		if n := len(o.messages); n > 0 {
			o.messages = o.messages[:n-1]
		}
		o.errMsg = err.Error()
		return
	}

	o.messages = append(o.messages, banana.ChatMessage{
		Role:      banana.RoleAssistant,
		Content:   resp.ResponseMessage,
		ImageURL:  resp.ResponseImageURL,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ConsumePending delivers the message parked by the new-chat surface.
// It is a guarded one-shot: the instance latch stops re-entry, and the
// store's read-once Take stops a second instance from re-sending.
func (o *Orchestrator) ConsumePending(ctx context.Context) {
	o.mu.Lock()
	if o.sessionID == "" || o.pendingDone {
		o.mu.Unlock()
		return
	}
	o.pendingDone = true
	o.mu.Unlock()

	if o.deps.Pending == nil {
		return
	}
	pending, ok := o.deps.Pending.Take()
	if !ok {
		return
	}

	user := o.deps.Auth.User()
	if user == nil {
		o.setErr(msgLoginRequired)
		return
	}

	o.mu.Lock()
	o.sending = true
	o.errMsg = ""
	o.mu.Unlock()

	o.exchange(ctx, user.ID, pending.Content, pending.Image)
}

// LoadHistory replaces the transcript with the session's stored events.
// An empty history leaves the current transcript alone so an optimistic
// entry from a fresh hand-off is not wiped out.
func (o *Orchestrator) LoadHistory(ctx context.Context) error {
	o.mu.Lock()
	sessionID := o.sessionID
	o.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	history, err := o.deps.Gateway.SessionEvents(ctx, sessionID)
	if err != nil {
		if o.deps.Logger != nil {
			o.deps.Logger.Warn("Chat", "Failed to load session events", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return err
	}
	if len(history) == 0 {
		return nil
	}

	o.mu.Lock()
	o.messages = history
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) setErr(msg string) {
	o.mu.Lock()
	o.errMsg = msg
	o.mu.Unlock()
}
