package roster

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/apperr"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

// batchSize keeps each "or" filter under Notion's limit of 100 conditions.
const batchSize = 90

var errStudentDatabaseUnset = errors.New("STUDENT_DATABASE_ID環境変数が設定されていません")

// Store is the part of the Notion API the sync needs.
type Store interface {
	QueryDatabase(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) (*notion.Page, error)
	RetrievePage(ctx context.Context, pageID string) (*notion.Page, error)
}

// Config names the databases and properties the sync reads and writes.
type Config struct {
	StudentDatabaseID    string
	EventDatabaseID      string // when set, only pages of this database are updated
	StudentIDProperty    string
	StudentIDKind        string // filter kind of StudentIDProperty, "rich_text" when empty
	ParticipantsProperty string
	MaxConcurrent        int
}

// Result describes a completed sync.
type Result struct {
	EventName    string `json:"eventName"`
	EventDate    string `json:"eventDate"`
	StudentCount int    `json:"studentCount"`
	EventID      string `json:"eventId"`
}

// Service syncs event participants.
type Service struct {
	store      Store
	httpClient *http.Client
	config     Config
}

// NewService creates a Service. A nil httpClient gets a 30 second timeout.
func NewService(store Store, httpClient *http.Client, config Config) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.StudentIDKind == "" {
		config.StudentIDKind = "rich_text"
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Service{store: store, httpClient: httpClient, config: config}
}

// Sync downloads the roster of req, finds the listed students and sets them
// as the participants of the event page.
func (s *Service) Sync(ctx context.Context, req *Request) (*Result, error) {
	if s.config.StudentDatabaseID == "" {
		return nil, apperr.Internal(MsgProcessFailed, errStudentDatabaseUnset)
	}

	if err := s.checkEventPage(ctx, req.PageID); err != nil {
		return nil, err
	}

	ids, err := Fetch(ctx, s.httpClient, req.CSVURL)
	if err != nil {
		return nil, apperr.Internal(MsgProcessFailed, err)
	}
	if len(ids) == 0 {
		return nil, apperr.InvalidRequest(MsgNoStudentIDs)
	}

	students, err := s.findStudents(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(MsgProcessFailed, err)
	}
	if len(students) == 0 {
		return nil, apperr.NotFound(MsgNoStudents)
	}

	page, err := s.store.UpdatePage(ctx, req.PageID, map[string]any{
		s.config.ParticipantsProperty: notion.RelationUpdate(students),
	})
	if err != nil {
		return nil, apperr.Internal(MsgProcessFailed, err)
	}

	slog.Info("event participants updated", "event_id", page.ID, "event", req.EventName, "students", len(students))
	return &Result{
		EventName:    req.EventName,
		EventDate:    req.EventDate,
		StudentCount: len(students),
		EventID:      page.ID,
	}, nil
}

func (s *Service) checkEventPage(ctx context.Context, pageID string) error {
	if s.config.EventDatabaseID == "" {
		return nil
	}
	page, err := s.store.RetrievePage(ctx, pageID)
	if err != nil {
		var apiErr *notion.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return apperr.NotFound(MsgNotEventPage)
		}
		return apperr.Internal(MsgProcessFailed, err)
	}
	if !page.InDatabase(s.config.EventDatabaseID) {
		return apperr.InvalidRequest(MsgNotEventPage)
	}
	return nil
}

// findStudents returns the page ids of the students with the given ids,
// querying the student database in batches.
func (s *Service) findStudents(ctx context.Context, ids []string) ([]string, error) {
	var batches [][]string
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batches = append(batches, ids[start:end])
	}

	found := make([][]string, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)
	for i, batch := range batches {
		g.Go(func() error {
			filters := make([]notion.Filter, len(batch))
			for j, id := range batch {
				filters[j] = notion.EqualsFilter(s.config.StudentIDProperty, s.config.StudentIDKind, id)
			}
			pages, err := s.store.QueryDatabase(ctx, s.config.StudentDatabaseID, notion.OrFilter(filters...))
			if err != nil {
				return err
			}
			for _, p := range pages {
				found[i] = append(found[i], p.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var students []string
	for _, b := range found {
		students = append(students, b...)
	}
	if missing := len(ids) - len(students); missing > 0 {
		slog.Warn("some student ids were not found", "missing", missing)
	}
	return students, nil
}
