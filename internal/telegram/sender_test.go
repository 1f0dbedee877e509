package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"
)

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0] != short {
		t.Errorf("expected %q, got %q", short, parts[0])
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage {
		t.Errorf("expected first part length %d, got %d", maxTelegramMessage, len(parts[0]))
	}
	if strings.Join(parts, "") != long {
		t.Error("parts should reassemble to the original text")
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 50) // 5000 bytes
	parts := splitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if strings.HasSuffix(parts[0], "\n") || strings.Contains(parts[0][len(parts[0])-99:], "\n") {
		t.Errorf("first part should end on a whole line, got ...%q", parts[0][len(parts[0])-10:])
	}
	if !strings.HasPrefix(parts[1], "x") {
		t.Errorf("second part should start a new line, got %q", parts[1][:10])
	}
}

func TestSplitMessageCountsUTF16(t *testing.T) {
	// Each emoji is a surrogate pair, two UTF-16 units.
	text := strings.Repeat("😀", 3000)
	parts := splitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, p := range parts {
		if n := len(utf16.Encode([]rune(p))); n > maxTelegramMessage {
			t.Errorf("part %d has %d UTF-16 units", i, n)
		}
	}
	if strings.Join(parts, "") != text {
		t.Error("parts should reassemble to the original text")
	}
}

func TestParseChatID(t *testing.T) {
	id, err := ParseChatID("-1001234567890")
	if err != nil {
		t.Fatal(err)
	}
	if id != -1001234567890 {
		t.Errorf("expected -1001234567890, got %d", id)
	}
	if _, err := ParseChatID("general"); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}

type fakeTelegram struct {
	mu         sync.Mutex
	rejectMD   bool
	sent       []string
	parseModes []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bridge","username":"bridge_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()
		mode := r.PostForm.Get("parse_mode")
		f.parseModes = append(f.parseModes, mode)
		if f.rejectMD && mode != "" {
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
			return
		}
		f.sent = append(f.sent, r.PostForm.Get("text"))
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestSender(t *testing.T, fake *fakeTelegram) *Sender {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s, err := NewWithEndpoint("token", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewWithEndpoint: %v", err)
	}
	return s
}

func TestSendTo(t *testing.T) {
	fake := &fakeTelegram{}
	s := newTestSender(t, fake)

	if err := s.SendTo(context.Background(), 42, "Name: [Ship it](https://x)"); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 || fake.sent[0] != "Name: [Ship it](https://x)" {
		t.Errorf("unexpected sent messages %q", fake.sent)
	}
	if fake.parseModes[0] != "Markdown" {
		t.Errorf("expected Markdown parse mode, got %q", fake.parseModes[0])
	}
}

func TestSendToFallsBackToPlainText(t *testing.T) {
	fake := &fakeTelegram{rejectMD: true}
	s := newTestSender(t, fake)

	if err := s.SendTo(context.Background(), 42, "snake_case_name: 1"); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 delivered message, got %d", len(fake.sent))
	}
	if len(fake.parseModes) != 2 || fake.parseModes[1] != "" {
		t.Errorf("expected a markdown attempt then a plain attempt, got %q", fake.parseModes)
	}
}

func TestSendToCanceled(t *testing.T) {
	fake := &fakeTelegram{}
	s := newTestSender(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SendTo(ctx, 42, "hi"); err == nil {
		t.Fatal("expected context error")
	}
	if len(fake.sent) != 0 {
		t.Errorf("nothing should be sent after cancellation, got %q", fake.sent)
	}
}
