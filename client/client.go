package main

import (
	"bufio"
	"context"
	"direct-chat/api"
	"direct-chat/auth"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080"`
	Token     string `envconfig:"CHAT_TOKEN" required:"true"`
	Peer      string `envconfig:"CHAT_PEER" required:"true"`
	// CHAT_COLOURS enables colorized output
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run prints the last page of the conversation, then relays stdin lines to the peer
// and prints everything the server pushes until Ctrl+C or EOF.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	identity, err := identityFromToken(config.Token)
	if err != nil {
		return exitConfig, err
	}
	p := printer{out: os.Stdout, me: identity, colours: config.Colours}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, err := fetchHistory(ctx, config.ServerURL, identity, config.Peer)
	if err != nil {
		return exitRuntime, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		p.message(history[i])
	}

	wsURL, err := websocketURL(config.ServerURL, config.Token)
	if err != nil {
		return exitConfig, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()
	log.Info(fmt.Sprintf(">>> Connected as %s, chatting with %s (Ctrl+C to quit)", identity, config.Peer))

	readErr := make(chan error, 1)
	go func() { readErr <- p.readLoop(conn) }()

	lines := make(chan string)
	go scanLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			data, err := json.Marshal(api.SendMessage{ReceiverIdentity: config.Peer, Body: line})
			if err != nil {
				return exitRuntime, err
			}
			if err = conn.WriteJSON(api.Envelope{Event: api.EventSendMessage, Data: data}); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

// identityFromToken reads user_id without checking the signature, the server does that.
func identityFromToken(token string) (string, error) {
	claims := &auth.CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("unreadable CHAT_TOKEN: %w", err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("CHAT_TOKEN carries no user_id")
	}
	return claims.UserID, nil
}

func websocketURL(serverURL, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid CHAT_SERVER_URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	return u.String(), nil
}

func fetchHistory(ctx context.Context, serverURL, me, peer string) ([]api.Message, error) {
	endpoint := fmt.Sprintf("%s/history/%s/%s", strings.TrimSuffix(serverURL, "/"),
		url.PathEscape(me), url.PathEscape(peer))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history unavailable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history unavailable: %s", resp.Status)
	}
	var messages []api.Message
	if err = json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func scanLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

type printer struct {
	out     io.Writer
	me      string
	colours bool
}

func (p printer) readLoop(conn *websocket.Conn) error {
	for {
		var envelope api.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			return err
		}
		p.frame(envelope)
	}
}

func (p printer) frame(envelope api.Envelope) {
	switch envelope.Event {
	case api.EventReceiveMessage:
		var message api.Message
		if err := json.Unmarshal(envelope.Data, &message); err == nil {
			p.message(message)
		}
	case api.EventMessageAccepted:
		var accepted api.Accepted
		if err := json.Unmarshal(envelope.Data, &accepted); err == nil {
			p.line(color.FgGray, fmt.Sprintf("  (%s)", accepted.State))
		}
	case api.EventError:
		var failure api.Error
		if err := json.Unmarshal(envelope.Data, &failure); err == nil {
			p.line(color.FgRed, fmt.Sprintf("  ! %s", failure.Error))
		}
	}
}

func (p printer) message(m api.Message) {
	text := fmt.Sprintf("[%s] %s: %s", m.Timestamp.Local().Format(time.TimeOnly), m.SenderIdentity, m.Body)
	if m.SenderIdentity == p.me {
		p.line(color.FgCyan, text)
		return
	}
	p.line(color.FgGreen, text)
}

func (p printer) line(c color.Color, text string) {
	if p.colours {
		text = c.Render(text)
	}
	_, _ = fmt.Fprintln(p.out, text)
}
