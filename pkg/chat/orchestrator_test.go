package chat

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giga-banana-web/pkg/authstate"
	"giga-banana-web/pkg/banana"
)

type fakeGateway struct {
	mu sync.Mutex

	uploadFn  func(ctx context.Context, filePath, userID string) (*banana.UploadResult, error)
	createFn  func(ctx context.Context, userID string) (*banana.SessionCreateResponse, error)
	sendFn    func(ctx context.Context, req banana.ChatRunRequest) (*banana.ChatRunResponse, error)
	eventsFn  func(ctx context.Context, sessionID string) ([]banana.ChatMessage, error)
	listFn    func(ctx context.Context, userID string) ([]banana.SessionListItem, error)
	sendCalls []banana.ChatRunRequest
}

func (g *fakeGateway) Upload(ctx context.Context, filePath, userID string) (*banana.UploadResult, error) {
	if g.uploadFn != nil {
		return g.uploadFn(ctx, filePath, userID)
	}
	return &banana.UploadResult{URI: "s3://bucket/" + filepath.Base(filePath), MimeType: "image/png", FileName: filepath.Base(filePath)}, nil
}

func (g *fakeGateway) CreateSession(ctx context.Context, userID string) (*banana.SessionCreateResponse, error) {
	if g.createFn != nil {
		return g.createFn(ctx, userID)
	}
	return &banana.SessionCreateResponse{SessionID: "sess-1", UserID: userID}, nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, req banana.ChatRunRequest) (*banana.ChatRunResponse, error) {
	g.mu.Lock()
	g.sendCalls = append(g.sendCalls, req)
	g.mu.Unlock()
	if g.sendFn != nil {
		return g.sendFn(ctx, req)
	}
	return &banana.ChatRunResponse{ResponseMessage: "done"}, nil
}

func (g *fakeGateway) SessionEvents(ctx context.Context, sessionID string) ([]banana.ChatMessage, error) {
	if g.eventsFn != nil {
		return g.eventsFn(ctx, sessionID)
	}
	return nil, nil
}

func (g *fakeGateway) ListSessions(ctx context.Context, userID string) ([]banana.SessionListItem, error) {
	if g.listFn != nil {
		return g.listFn(ctx, userID)
	}
	return nil, nil
}

func (g *fakeGateway) sentRequests() []banana.ChatRunRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]banana.ChatRunRequest, len(g.sendCalls))
	copy(out, g.sendCalls)
	return out
}

type fakeTagger struct {
	fn func(ctx context.Context, filePath string, topN int) ([]string, error)
}

func (t *fakeTagger) Analyze(ctx context.Context, filePath string, topN int) ([]string, error) {
	if t.fn != nil {
		return t.fn(ctx, filePath, topN)
	}
	return []string{"1girl", "banana"}, nil
}

func loggedInStore(t *testing.T) *authstate.Store {
	t.Helper()
	store := authstate.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, store.Load())
	require.NoError(t, store.SetAuth(authstate.User{ID: "user-1", Email: "a@b.c", Name: "A"}, "token"))
	return store
}

func loggedOutStore(t *testing.T) *authstate.Store {
	t.Helper()
	store := authstate.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, store.Load())
	return store
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Gateway:           &fakeGateway{},
		Tagger:            &fakeTagger{},
		Auth:              loggedInStore(t),
		Pending:           NewPendingStore(),
		SessionReadyDelay: 5 * time.Millisecond,
	}
}

func TestSendMessageEmptyIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	deps := testDeps(t)
	deps.Gateway = gw
	o := NewOrchestrator(deps)

	o.SendMessage(context.Background(), "   ")

	assert.Empty(t, o.Messages())
	assert.Empty(t, gw.sentRequests())
	assert.Empty(t, o.Err())
}

func TestSendMessageRequiresLogin(t *testing.T) {
	deps := testDeps(t)
	deps.Auth = loggedOutStore(t)
	o := NewOrchestrator(deps)

	o.SendMessage(context.Background(), "hello")

	assert.Equal(t, "로그인이 필요합니다.", o.Err())
	assert.Empty(t, o.Messages())
}

func TestNewChatCreatesSessionAndHandsOff(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	sub, err := bus.Subscribe(context.Background(), TopicSessionCreated)
	require.NoError(t, err)

	var navigated string
	var callbackID string

	deps := testDeps(t)
	deps.Publisher = bus
	deps.Navigator = NavigatorFunc(func(sessionID string) { navigated = sessionID })
	deps.OnSessionCreated = func(sessionID string) { callbackID = sessionID }

	o := NewOrchestrator(deps)
	o.SendMessage(context.Background(), "make me a banana")
	o.Wait()

	assert.Equal(t, "sess-1", o.SessionID())
	assert.Equal(t, "sess-1", navigated)
	assert.Equal(t, "sess-1", callbackID)
	assert.False(t, o.Sending())
	// The message is parked, not appended locally.
	assert.Empty(t, o.Messages())
	pending, ok := deps.Pending.Take()
	require.True(t, ok)
	assert.Equal(t, "make me a banana", pending.Content)

	select {
	case msg := <-sub:
		var event SessionCreatedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "sess-1", event.SessionID)
		assert.Equal(t, "user-1", event.UserID)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("session-created event was never published")
	}
}

func TestNewChatSessionIDSurvivesCreateOnly(t *testing.T) {
	deps := testDeps(t)
	deps.Gateway = &fakeGateway{
		createFn: func(ctx context.Context, userID string) (*banana.SessionCreateResponse, error) {
			return nil, errors.New("세션 생성에 실패했습니다.")
		},
	}
	o := NewOrchestrator(deps)

	o.SendMessage(context.Background(), "hello")

	assert.Equal(t, "세션 생성에 실패했습니다.", o.Err())
	assert.Empty(t, o.SessionID())
	assert.False(t, o.Sending())
	_, ok := deps.Pending.Take()
	assert.False(t, ok)
}

func TestExchangeAppendsUserAndAssistant(t *testing.T) {
	gw := &fakeGateway{
		sendFn: func(ctx context.Context, req banana.ChatRunRequest) (*banana.ChatRunResponse, error) {
			return &banana.ChatRunResponse{ResponseMessage: "here you go", ResponseImageURL: "s3://bucket/out.png"}, nil
		},
	}
	deps := testDeps(t)
	deps.Gateway = gw
	o := NewSessionOrchestrator(deps, "sess-9")

	o.SendMessage(context.Background(), "draw a banana")

	messages := o.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, banana.RoleUser, messages[0].Role)
	assert.Equal(t, "draw a banana", messages[0].Content)
	assert.Equal(t, banana.RoleAssistant, messages[1].Role)
	assert.Equal(t, "here you go", messages[1].Content)
	assert.Equal(t, "s3://bucket/out.png", messages[1].ImageURL)
	assert.False(t, o.Sending())

	reqs := gw.sentRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "sess-9", reqs[0].SessionID)
	assert.Equal(t, "user-1", reqs[0].UserID)
}

func TestExchangeRollsBackOnFailure(t *testing.T) {
	gw := &fakeGateway{
		sendFn: func(ctx context.Context, req banana.ChatRunRequest) (*banana.ChatRunResponse, error) {
			return nil, errors.New("메시지 전송에 실패했습니다.")
		},
	}
	deps := testDeps(t)
	deps.Gateway = gw
	o := NewSessionOrchestrator(deps, "sess-9")

	o.SendMessage(context.Background(), "first")
	assert.Empty(t, o.Messages(), "optimistic entry must be rolled back")
	assert.Equal(t, "메시지 전송에 실패했습니다.", o.Err())

	// A later successful turn starts from a clean transcript.
	gw.sendFn = nil
	o.SendMessage(context.Background(), "second")
	messages := o.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "second", messages[0].Content)
	assert.Empty(t, o.Err())
}

func TestUploadStagesImageAndAnalyzes(t *testing.T) {
	deps := testDeps(t)
	o := NewOrchestrator(deps)

	result := o.UploadFile(context.Background(), "/tmp/banana.png")
	require.NotNil(t, result)
	o.Wait()

	img := o.UploadedImage()
	require.NotNil(t, img)
	assert.Equal(t, "s3://bucket/banana.png", img.URI)
	assert.False(t, o.Uploading())

	state := o.Analysis()
	assert.False(t, state.Analyzing)
	assert.Equal(t, []string{"1girl", "banana"}, state.Tags)
}

func TestUploadRequiresLogin(t *testing.T) {
	deps := testDeps(t)
	deps.Auth = loggedOutStore(t)
	o := NewOrchestrator(deps)

	result := o.UploadFile(context.Background(), "/tmp/banana.png")

	assert.Nil(t, result)
	assert.Equal(t, "로그인이 필요합니다.", o.Err())
}

func TestUploadFailureResetsAnalysis(t *testing.T) {
	deps := testDeps(t)
	deps.Gateway = &fakeGateway{
		uploadFn: func(ctx context.Context, filePath, userID string) (*banana.UploadResult, error) {
			return nil, errors.New("이미지 업로드에 실패했습니다.")
		},
	}
	o := NewOrchestrator(deps)

	result := o.UploadFile(context.Background(), "/tmp/banana.png")

	assert.Nil(t, result)
	assert.Equal(t, "이미지 업로드에 실패했습니다.", o.Err())
	assert.Nil(t, o.UploadedImage())
	assert.Equal(t, AnalysisState{}, o.Analysis())
}

func TestStaleAnalysisResultIsDropped(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	deps := testDeps(t)
	deps.Tagger = &fakeTagger{
		fn: func(ctx context.Context, filePath string, topN int) ([]string, error) {
			if filePath == "/tmp/slow.png" {
				close(firstStarted)
				<-release
				return []string{"stale"}, nil
			}
			return []string{"fresh"}, nil
		},
	}
	o := NewOrchestrator(deps)

	require.NotNil(t, o.UploadFile(context.Background(), "/tmp/slow.png"))
	<-firstStarted
	require.NotNil(t, o.UploadFile(context.Background(), "/tmp/fast.png"))
	close(release)
	o.Wait()

	state := o.Analysis()
	assert.Equal(t, []string{"fresh"}, state.Tags, "slow result from the replaced upload must not win")
}

func TestClearUploadedImageInvalidatesAnalysis(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	deps := testDeps(t)
	deps.Tagger = &fakeTagger{
		fn: func(ctx context.Context, filePath string, topN int) ([]string, error) {
			close(started)
			<-release
			return []string{"late"}, nil
		},
	}
	o := NewOrchestrator(deps)

	require.NotNil(t, o.UploadFile(context.Background(), "/tmp/banana.png"))
	<-started
	o.ClearUploadedImage()
	close(release)
	o.Wait()

	assert.Nil(t, o.UploadedImage())
	assert.Equal(t, AnalysisState{}, o.Analysis())
}

func TestSendDetachesStagedImage(t *testing.T) {
	gw := &fakeGateway{}
	deps := testDeps(t)
	deps.Gateway = gw
	o := NewSessionOrchestrator(deps, "sess-9")

	require.NotNil(t, o.UploadFile(context.Background(), "/tmp/banana.png"))
	o.Wait()
	o.SendMessage(context.Background(), "use the image")

	reqs := gw.sentRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "s3://bucket/banana.png", reqs[0].ImageUploadURL)
	assert.Equal(t, "image/png", reqs[0].ImageUploadMimeType)
	assert.Nil(t, o.UploadedImage(), "composer must be free after the send")
	assert.Equal(t, AnalysisState{}, o.Analysis())
}

func TestConsumePendingDeliversExactlyOnce(t *testing.T) {
	gw := &fakeGateway{}
	deps := testDeps(t)
	deps.Gateway = gw
	deps.Pending.Set(PendingMessage{
		Content: "handed off",
		Image:   &PendingImage{URI: "s3://bucket/banana.png", MimeType: "image/png"},
	})

	o := NewSessionOrchestrator(deps, "sess-1")
	o.ConsumePending(context.Background())
	o.ConsumePending(context.Background())

	// A second page instance sharing the store also gets nothing.
	o2 := NewSessionOrchestrator(deps, "sess-1")
	o2.ConsumePending(context.Background())

	reqs := gw.sentRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "handed off", reqs[0].UserMessage)
	assert.Equal(t, "s3://bucket/banana.png", reqs[0].ImageUploadURL)

	messages := o.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "handed off", messages[0].Content)
	assert.Equal(t, "s3://bucket/banana.png", messages[0].ImageURL)
	assert.Empty(t, o2.Messages())
}

func TestConsumePendingNeedsSession(t *testing.T) {
	gw := &fakeGateway{}
	deps := testDeps(t)
	deps.Gateway = gw
	deps.Pending.Set(PendingMessage{Content: "parked"})

	o := NewOrchestrator(deps)
	o.ConsumePending(context.Background())

	assert.Empty(t, gw.sentRequests())
	_, ok := deps.Pending.Take()
	assert.True(t, ok, "the slot must still hold the message")
}

func TestLoadHistoryReplacesTranscript(t *testing.T) {
	history := []banana.ChatMessage{
		{Role: banana.RoleUser, Content: "older"},
		{Role: banana.RoleAssistant, Content: "reply"},
	}
	deps := testDeps(t)
	deps.Gateway = &fakeGateway{
		eventsFn: func(ctx context.Context, sessionID string) ([]banana.ChatMessage, error) {
			return history, nil
		},
	}
	o := NewSessionOrchestrator(deps, "sess-1")

	require.NoError(t, o.LoadHistory(context.Background()))
	assert.Equal(t, history, o.Messages())
}

func TestLoadHistoryEmptyKeepsOptimisticEntry(t *testing.T) {
	gw := &fakeGateway{}
	deps := testDeps(t)
	deps.Gateway = gw
	deps.Pending.Set(PendingMessage{Content: "fresh hand-off"})

	o := NewSessionOrchestrator(deps, "sess-1")
	o.ConsumePending(context.Background())
	require.NotEmpty(t, o.Messages())

	require.NoError(t, o.LoadHistory(context.Background()))
	messages := o.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "fresh hand-off", messages[0].Content)
}
