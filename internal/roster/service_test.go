package roster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/apperr"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

// fakeStore resolves student ids present in students to page "page-<id>".
type fakeStore struct {
	mu       sync.Mutex
	students map[string]bool
	queries  int
	queryErr error
	updated  map[string]any
	pageID   string
	parents  map[string]string // page id to database id
}

func (f *fakeStore) QueryDatabase(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var pages []notion.Page
	for _, cond := range filter["or"].([]notion.Filter) {
		id := cond["rich_text"].(map[string]any)["equals"].(string)
		if f.students[id] {
			pages = append(pages, notion.Page{ID: "page-" + id})
		}
	}
	return pages, nil
}

func (f *fakeStore) UpdatePage(ctx context.Context, pageID string, properties map[string]any) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageID = pageID
	f.updated = properties
	return &notion.Page{ID: pageID}, nil
}

func (f *fakeStore) RetrievePage(ctx context.Context, pageID string) (*notion.Page, error) {
	db, ok := f.parents[pageID]
	if !ok {
		return nil, &notion.APIError{Status: http.StatusNotFound, Code: "object_not_found"}
	}
	return &notion.Page{ID: pageID, Parent: &notion.Parent{Type: "database_id", DatabaseID: db}}, nil
}

func serveCSV(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/roster.csv"
}

func testConfig() Config {
	return Config{
		StudentDatabaseID:    "students",
		StudentIDProperty:    "LステップID",
		ParticipantsProperty: "参加者",
		MaxConcurrent:        4,
	}
}

func TestSync(t *testing.T) {
	store := &fakeStore{students: map[string]bool{"S001": true, "S003": true}}
	svc := NewService(store, nil, testConfig())

	req := &Request{PageID: "evt-1", EventName: "Open Day", EventDate: "2025-04-01", CSVURL: serveCSV(t, "c\nID\nS001\nS002\nS003\n")}
	res, err := svc.Sync(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, &Result{EventName: "Open Day", EventDate: "2025-04-01", StudentCount: 2, EventID: "evt-1"}, res)
	assert.Equal(t, "evt-1", store.pageID)
	assert.Equal(t, map[string]any{
		"参加者": notion.RelationUpdate([]string{"page-S001", "page-S003"}),
	}, store.updated)
}

func TestSyncBatchesLookups(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var b strings.Builder
	b.WriteString("caption\nID\n")
	students := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("S%03d", i)
		fmt.Fprintln(&b, id)
		students[id] = true
	}
	store := &fakeStore{students: students}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()
	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	svc := NewService(store, client, testConfig())
	res, err := svc.Sync(context.Background(), &Request{PageID: "evt", CSVURL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, 200, res.StudentCount)
	assert.Equal(t, 3, store.queries)
	refs := store.updated["参加者"].(map[string]any)["relation"].([]notion.Reference)
	require.Len(t, refs, 200)
	assert.Equal(t, "page-S000", refs[0].ID)
	assert.Equal(t, "page-S199", refs[199].ID)
}

func TestSyncErrors(t *testing.T) {
	t.Run("no ids", func(t *testing.T) {
		svc := NewService(&fakeStore{}, nil, testConfig())
		_, err := svc.Sync(context.Background(), &Request{PageID: "p", CSVURL: serveCSV(t, "c\nID\n\n")})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidRequest))
		assert.Equal(t, MsgNoStudentIDs, apperr.Message(err, ""))
	})

	t.Run("no students", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, nil, testConfig())
		_, err := svc.Sync(context.Background(), &Request{PageID: "p", CSVURL: serveCSV(t, "c\nID\nS9\n")})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		assert.Nil(t, store.updated)
	})

	t.Run("bad csv", func(t *testing.T) {
		svc := NewService(&fakeStore{}, nil, testConfig())
		_, err := svc.Sync(context.Background(), &Request{PageID: "p", CSVURL: serveCSV(t, "c\nName\nx\n")})
		assert.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))
		assert.ErrorIs(t, err, ErrNoIDColumn)
		assert.Equal(t, MsgProcessFailed+": "+ErrNoIDColumn.Error(), apperr.Message(err, ""))
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewService(&fakeStore{queryErr: boom}, nil, testConfig())
		_, err := svc.Sync(context.Background(), &Request{PageID: "p", CSVURL: serveCSV(t, "c\nID\nS1\n")})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no student database", func(t *testing.T) {
		cfg := testConfig()
		cfg.StudentDatabaseID = ""
		_, err := NewService(&fakeStore{}, nil, cfg).Sync(context.Background(), &Request{PageID: "p"})
		assert.True(t, apperr.Is(err, apperr.CodeInternal))
	})

	t.Run("page outside event database", func(t *testing.T) {
		cfg := testConfig()
		cfg.EventDatabaseID = "events"
		store := &fakeStore{students: map[string]bool{"S1": true}, parents: map[string]string{"p": "other"}}
		_, err := NewService(store, nil, cfg).Sync(context.Background(), &Request{PageID: "p", CSVURL: serveCSV(t, "c\nID\nS1\n")})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidRequest))
		assert.Equal(t, MsgNotEventPage, apperr.Message(err, ""))
		assert.Zero(t, store.queries)
		assert.Nil(t, store.updated)
	})

	t.Run("event page missing", func(t *testing.T) {
		cfg := testConfig()
		cfg.EventDatabaseID = "events"
		_, err := NewService(&fakeStore{}, nil, cfg).Sync(context.Background(), &Request{PageID: "gone"})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestSyncChecksEventDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.EventDatabaseID = "EVENTS"
	store := &fakeStore{students: map[string]bool{"S1": true}, parents: map[string]string{"evt-1": "events"}}

	res, err := NewService(store, nil, cfg).Sync(context.Background(), &Request{PageID: "evt-1", CSVURL: serveCSV(t, "c\nID\nS1\n")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.StudentCount)
	assert.Equal(t, "evt-1", store.pageID)
}
