package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/akvekariya/aichatbot-reactnative/internal/api"
	"github.com/akvekariya/aichatbot-reactnative/internal/auth"
	"github.com/akvekariya/aichatbot-reactnative/internal/chat"
	"github.com/akvekariya/aichatbot-reactnative/internal/config"
	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
	"github.com/akvekariya/aichatbot-reactnative/internal/monitoring"
	"github.com/akvekariya/aichatbot-reactnative/internal/resilience"
	"github.com/akvekariya/aichatbot-reactnative/internal/types"
	"github.com/akvekariya/aichatbot-reactnative/internal/ws"
)

func main() {
	apiURL := flag.String("api", "", "Backend base URL (overrides API_BASE_URL)")
	socketURL := flag.String("socket", "", "Event channel URL (overrides SOCKET_URL)")
	token := flag.String("token", "", "Bearer token to start authenticated")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *socketURL != "" {
		cfg.Socket.URL = *socketURL
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics := monitoring.NewMetrics()
	creds := auth.NewCredentials()
	client := api.NewClient(cfg.API, creds, log, metrics)

	ctx := context.Background()
	probe := resilience.RetryOptions{
		MaxRetries:  cfg.Retry.MaxRetries,
		Delay:       cfg.Retry.Delay,
		Exponential: cfg.Retry.Exponential,
		RetryIf:     func(err error) bool { return !api.IsAPIError(err) },
	}
	if err := resilience.Retry(ctx, probe, func() error { return client.Health(ctx) }); err != nil {
		log.Warn("backend unreachable", zap.Error(err))
	}

	manager := ws.NewManager(cfg.Socket.URL, ws.NewWebsocketTransport(cfg.Socket.HandshakeTimeout), log, metrics)
	coord := chat.NewCoordinator(manager, client, log, metrics)
	typing := chat.NewTypingSignal(cfg.Chat.TypingWindow, func(isTyping bool) {
		_ = coord.SendTyping(isTyping)
	})
	defer typing.Stop()

	policy := ws.NewCredentialPolicy(manager, log)
	policy.Bind(creds)
	if *token != "" {
		creds.Set(*token)
	}

	ui := &console{out: os.Stdout}
	coord.Subscribe(func() { ui.render(coord.Snapshot()) })

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 64*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("aichatbot console, /help for commands")
	for {
		select {
		case <-sigChan:
			typing.Flush()
			manager.Disconnect()
			return
		case line, ok := <-lines:
			if !ok {
				typing.Flush()
				manager.Disconnect()
				return
			}
			if handle(ctx, line, coord, typing, client, creds, cfg) {
				manager.Disconnect()
				return
			}
		}
	}
}

// handle runs one console command. Returns true when the session should end.
func handle(ctx context.Context, line string, coord *chat.Coordinator, typing *chat.TypingSignal, client *api.Client, creds *auth.Credentials, cfg *config.Config) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		typing.Observe(line)
		if err := coord.SendMessage(line); err != nil {
			fmt.Printf("send: %v\n", err)
		}
		typing.Flush()
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/help":
		fmt.Print(usage)
	case "/login":
		if len(args) != 1 {
			fmt.Println("usage: /login <google-id-token>")
			return false
		}
		data, err := client.LoginWithGoogle(ctx, args[0])
		if err != nil {
			fmt.Printf("login: %v\n", err)
			return false
		}
		fmt.Printf("signed in as %s\n", data.User.Email)
	case "/logout":
		client.Logout()
		coord.Reset()
		fmt.Println("signed out")
	case "/token":
		if len(args) != 1 {
			fmt.Println("usage: /token <bearer-token>")
			return false
		}
		creds.Set(args[0])
	case "/new":
		if len(args) == 0 {
			fmt.Println("usage: /new <topic>[,<topic>] [title...]")
			return false
		}
		topics := strings.Split(args[0], ",")
		title := strings.Join(args[1:], " ")
		created, err := coord.StartNewChat(ctx, topics, title)
		if err != nil {
			fmt.Printf("new chat: %v\n", err)
			return false
		}
		fmt.Printf("chat %s ready\n", created.ID)
	case "/list":
		if err := coord.RefreshChatList(ctx, cfg.Chat.HistoryLimit, strings.Join(args, " ")); err != nil {
			fmt.Printf("list: %v\n", err)
			return false
		}
		for _, c := range coord.Snapshot().ChatList {
			fmt.Printf("  %s  %-30s  %d messages\n", c.ID, c.Title, c.MessageCount)
		}
	case "/open":
		if len(args) != 1 {
			fmt.Println("usage: /open <chat-id>")
			return false
		}
		opened, err := coord.OpenChat(ctx, args[0])
		if err != nil {
			fmt.Printf("open: %v\n", err)
			return false
		}
		fmt.Printf("opened %q (%d messages)\n", opened.Title, len(opened.Messages))
	case "/history":
		snap := coord.Snapshot()
		if snap.CurrentChat == nil {
			fmt.Println("no current chat")
			return false
		}
		if err := coord.LoadHistory(snap.CurrentChat.ID, cfg.Chat.HistoryLimit); err != nil {
			fmt.Printf("history: %v\n", err)
		}
	case "/delete":
		if len(args) != 1 {
			fmt.Println("usage: /delete <chat-id>")
			return false
		}
		if err := coord.DeleteChat(ctx, args[0]); err != nil {
			fmt.Printf("delete: %v\n", err)
		}
	case "/title":
		if len(args) < 2 {
			fmt.Println("usage: /title <chat-id> <new title...>")
			return false
		}
		if err := coord.UpdateChatTitle(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			fmt.Printf("title: %v\n", err)
		}
	case "/quit", "/exit":
		typing.Flush()
		return true
	default:
		fmt.Printf("unknown command %s — /help for commands\n", cmd)
	}
	return false
}

const usage = `  /login <id-token>       exchange a Google ID token for a session
  /token <bearer>         use a raw bearer token
  /logout                 drop credentials and session state
  /new <topics> [title]   start a chat (topics comma-separated)
  /list [search]          refresh and print the chat list
  /open <chat-id>         open a chat and load its history
  /history                reload history for the current chat
  /delete <chat-id>       delete a chat
  /title <chat-id> <t>    rename a chat
  /quit                   exit
  anything else           send as a message to the current chat
`

// console prints coordinator changes: new messages since the last render
// plus connection and AI-thinking edges.
type console struct {
	out       *os.File
	seen      int
	chatID    string
	connected bool
	thinking  bool
}

func (c *console) render(snap chat.Snapshot) {
	if snap.Connected != c.connected {
		c.connected = snap.Connected
		if snap.Connected {
			fmt.Fprintln(c.out, "* connected")
		} else {
			fmt.Fprintln(c.out, "* disconnected")
		}
	}
	if snap.CurrentChat == nil {
		c.chatID, c.seen = "", 0
		return
	}
	if snap.CurrentChat.ID != c.chatID {
		c.chatID = snap.CurrentChat.ID
		c.seen = 0
	}
	for _, msg := range snap.CurrentChat.Messages[min(c.seen, len(snap.CurrentChat.Messages)):] {
		fmt.Fprintf(c.out, "[%s] %s\n", label(msg), msg.Text)
	}
	c.seen = len(snap.CurrentChat.Messages)
	if snap.AIThinking != c.thinking {
		c.thinking = snap.AIThinking
		if snap.AIThinking {
			fmt.Fprintln(c.out, "* assistant is thinking...")
		}
	}
}

func label(msg types.Message) string {
	if msg.Sender == types.SenderAI {
		if msg.AIModel != "" {
			return msg.AIModel
		}
		return "ai"
	}
	return "you"
}
