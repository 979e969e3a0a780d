package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"giga-banana-web/internal/config"
	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/pkg/authhttp"
	"giga-banana-web/pkg/authstate"
	"giga-banana-web/pkg/banana"
	"giga-banana-web/pkg/chat"
	"giga-banana-web/pkg/creations"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	userColor      = color.New(color.FgGreen)
	assistantColor = color.New(color.FgWhite)
	errColor       = color.New(color.FgRed)
	infoColor      = color.New(color.FgYellow)
	tagColor       = color.New(color.FgMagenta)
)

// app holds the live surface of the terminal client. current is swapped
// whenever navigation moves between the new-chat page and a session page.
type app struct {
	cfg       *config.Config
	store     *authstate.Store
	api       *authhttp.Client
	gateway   *banana.Client
	tagger    *banana.Tagger
	gallery   *creations.Client
	pending   *chat.PendingStore
	bus       *gochannel.GoChannel
	directory *chat.SessionDirectory
	log       logger.ILogger

	current *chat.Orchestrator
}

func main() {
	cfg := config.Load()

	fileLog := logger.NewIsolatedLogger("logs/chat.log")

	store := authstate.NewStore(cfg.Client.AuthStatePath)
	if err := store.Load(); err != nil {
		log.Fatalf("Unable to load auth state: %v", err)
	}

	api, err := authhttp.New(cfg.Client.APIBaseURL, store)
	if err != nil {
		log.Fatalf("Unable to build API client: %v", err)
	}

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	gateway := banana.NewClient(cfg.Banana.BaseURL)

	a := &app{
		cfg:       cfg,
		store:     store,
		api:       api,
		gateway:   gateway,
		tagger:    banana.NewTagger(cfg.Banana.TaggerURL),
		gallery:   creations.NewClient(api),
		pending:   chat.NewPendingStore(),
		bus:       bus,
		directory: chat.NewSessionDirectory(gateway, fileLog),
		log:       fileLog,
	}

	ctx := context.Background()
	if err := a.directory.Watch(ctx, bus); err != nil {
		log.Fatalf("Unable to watch session events: %v", err)
	}

	a.current = chat.NewOrchestrator(a.deps())

	promptColor.Println("Giga Banana")
	if user := store.User(); user != nil {
		infoColor.Printf("%s 님으로 로그인되어 있습니다.\n", user.Name)
	} else {
		infoColor.Println("로그인이 필요합니다. /login <email> <password>")
	}
	fmt.Println("명령어 목록은 /help 를 입력하세요.")

	a.repl(ctx)
}

func (a *app) deps() chat.Deps {
	return chat.Deps{
		Gateway:           a.gateway,
		Tagger:            a.tagger,
		Auth:              a.store,
		Pending:           a.pending,
		Publisher:         a.bus,
		Navigator:         chat.NavigatorFunc(a.openSession),
		Logger:            a.log,
		SessionReadyDelay: a.cfg.Banana.SessionReadyDelay,
		AnalysisTopN:      a.cfg.Banana.AnalysisTopN,
	}
}

// openSession switches the live surface to an existing session: history
// load and pending-message delivery run in parallel.
func (a *app) openSession(sessionID string) {
	o := chat.NewSessionOrchestrator(a.deps(), sessionID)
	a.current = o

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return o.LoadHistory(ctx)
	})
	g.Go(func() error {
		o.ConsumePending(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		errColor.Println(err.Error())
	}

	infoColor.Printf("세션 %s\n", sessionID)
	a.renderTranscript()
}

func (a *app) repl(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := a.command(ctx, line); quit {
				return
			}
			continue
		}

		surface := a.current
		surface.SendMessage(ctx, line)
		if msg := surface.Err(); msg != "" {
			errColor.Println(msg)
			continue
		}
		// Navigation replaces the surface and renders it; only a send on
		// the same surface needs the fresh exchange printed here.
		if a.current == surface {
			a.renderLastExchange()
		}
	}
}

func (a *app) command(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`/login <email> <password>   로그인
/signup <email> <name> <password>   회원가입
/logout                     로그아웃
/sessions                   세션 목록
/open <session_id>          세션 열기
/new                        새 채팅
/upload <file>              이미지 업로드
/tags                       업로드 이미지 분석 결과
/clear                      업로드 이미지 제거
/creations                  갤러리 목록
/delete <creation_id>       갤러리 항목 삭제
/quit                       종료`)

	case "/login":
		if len(fields) != 3 {
			errColor.Println("사용법: /login <email> <password>")
			return
		}
		user, err := a.api.Login(ctx, fields[1], fields[2])
		if err != nil {
			errColor.Println(err.Error())
			return
		}
		infoColor.Printf("%s 님, 환영합니다.\n", user.Name)

	case "/signup":
		if len(fields) != 4 {
			errColor.Println("사용법: /signup <email> <name> <password>")
			return
		}
		user, err := a.api.Signup(ctx, fields[1], fields[2], fields[3])
		if err != nil {
			errColor.Println(err.Error())
			return
		}
		infoColor.Printf("%s 님, 환영합니다.\n", user.Name)

	case "/logout":
		if err := a.api.Logout(ctx); err != nil {
			errColor.Println(err.Error())
			return
		}
		a.current = chat.NewOrchestrator(a.deps())
		infoColor.Println("로그아웃되었습니다.")

	case "/sessions":
		user := a.store.User()
		if user == nil {
			errColor.Println("로그인이 필요합니다.")
			return
		}
		sessions, err := a.directory.Sessions(ctx, user.ID)
		if err != nil {
			errColor.Println(err.Error())
			return
		}
		if len(sessions) == 0 {
			infoColor.Println("세션이 없습니다.")
			return
		}
		for _, s := range sessions {
			fmt.Printf("  %s  %s\n", s.SessionID, s.CreatedAt)
		}

	case "/open":
		if len(fields) != 2 {
			errColor.Println("사용법: /open <session_id>")
			return
		}
		a.openSession(fields[1])

	case "/new":
		a.current = chat.NewOrchestrator(a.deps())
		infoColor.Println("새 채팅을 시작합니다.")

	case "/upload":
		if len(fields) != 2 {
			errColor.Println("사용법: /upload <file>")
			return
		}
		result := a.current.UploadFile(ctx, fields[1])
		if result == nil {
			errColor.Println(a.current.Err())
			return
		}
		infoColor.Printf("업로드 완료: %s\n", result.FileName)

	case "/tags":
		state := a.current.Analysis()
		switch {
		case state.Analyzing:
			infoColor.Println("분석 중...")
		case state.Err != "":
			errColor.Println(state.Err)
		case len(state.Tags) > 0:
			tagColor.Println(strings.Join(state.Tags, ", "))
		default:
			infoColor.Println("분석 결과가 없습니다.")
		}

	case "/clear":
		a.current.ClearUploadedImage()
		infoColor.Println("업로드 이미지를 제거했습니다.")

	case "/creations":
		items, err := a.gallery.List(ctx)
		if err != nil {
			errColor.Println(err.Error())
			return
		}
		if len(items) == 0 {
			infoColor.Println("생성물이 없습니다.")
			return
		}
		for _, item := range items {
			fmt.Printf("  %s  %s\n", item.ID, banana.ImageURL(item.ImageURL))
		}

	case "/delete":
		if len(fields) != 2 {
			errColor.Println("사용법: /delete <creation_id>")
			return
		}
		if err := a.gallery.Delete(ctx, fields[1]); err != nil {
			errColor.Println(err.Error())
			return
		}
		infoColor.Println("삭제되었습니다.")

	case "/quit", "/exit":
		a.current.Wait()
		return true

	default:
		errColor.Println("알 수 없는 명령어입니다. /help 를 입력하세요.")
	}
	return false
}

func (a *app) renderTranscript() {
	for _, msg := range a.current.Messages() {
		renderMessage(msg)
	}
}

func (a *app) renderLastExchange() {
	messages := a.current.Messages()
	start := len(messages) - 2
	if start < 0 {
		start = 0
	}
	for _, msg := range messages[start:] {
		renderMessage(msg)
	}
}

func renderMessage(msg banana.ChatMessage) {
	switch msg.Role {
	case banana.RoleUser:
		userColor.Printf("you: %s\n", msg.Content)
	default:
		assistantColor.Printf("banana: %s\n", msg.Content)
	}
	if msg.ImageURL != "" {
		infoColor.Printf("  [image] %s\n", banana.ImageURL(msg.ImageURL))
	}
}
