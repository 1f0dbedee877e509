package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/config"
)

func TestDecodePage(t *testing.T) {
	props := `"properties": {"Name": {"type": "title", "title": [{"type": "text", "plain_text": "x"}]}}`

	for _, in := range []string{`{"data": {"id": "p1", ` + props + `}}`, `{"id": "p1", ` + props + `}`} {
		page, err := decodePage([]byte(in))
		if err != nil {
			t.Fatalf("decodePage(%s): %v", in, err)
		}
		if page.ID != "p1" || page.Properties.Len() != 1 {
			t.Errorf("unexpected page %+v", page)
		}
	}

	if _, err := decodePage([]byte(`{}`)); err == nil {
		t.Error("expected error for an empty object")
	}
	if _, err := decodePage([]byte(`[`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestBuildServer(t *testing.T) {
	cfg := config.Defaults()
	cfg.Discord.Token = "t"

	srv, err := buildServer(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Telegram is not configured.
	req := httptest.NewRequest(http.MethodPost, "/telegram/1", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for unconfigured telegram, got %d", w.Code)
	}

	// Neither is participant sync.
	req = httptest.NewRequest(http.MethodPost, "/events/participants", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "NOTION_API_KEY") {
		t.Errorf("expected participant sync to be disabled, got %d %s", w.Code, w.Body.String())
	}
}

func TestBuildServerBadLayout(t *testing.T) {
	cfg := config.Defaults()
	cfg.Layout = "cards"
	if _, err := buildServer(cfg); err == nil {
		t.Error("expected error for unknown layout")
	}
}
