// Package roster links the students listed in an event's attendance CSV
// to the event page in Notion.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTooShort means the file lacks a header line or any data line.
	ErrTooShort = errors.New("CSVファイルの形式が不正です：ヘッダーとデータが不足しています")
	// ErrNoIDColumn means no header cell names a student ID column.
	ErrNoIDColumn = errors.New("CSVファイルにID列が見つかりません")
)

// idHeaders are the accepted names of the ID column, lowercased.
var idHeaders = []string{"id", "studentid", "student id"}

// maxCSVSize caps how much of a roster file is read.
const maxCSVSize = 10 << 20

// ParseIDs extracts student IDs from an attendance export. The first line
// is a caption and is skipped, the second line is the header and every
// later non-blank line is a row. Rows too short to reach the ID column or
// with an empty ID cell are skipped.
func ParseIDs(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 3 {
		return nil, ErrTooShort
	}

	col := -1
	for i, h := range splitRow(lines[1]) {
		if isIDHeader(h) {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, ErrNoIDColumn
	}

	var ids []string
	for _, line := range lines[2:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := splitRow(line)
		if len(cells) <= col {
			continue
		}
		if id := strings.TrimSpace(cells[col]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func isIDHeader(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, h := range idHeaders {
		if cell == h {
			return true
		}
	}
	return false
}

// splitRow splits one line into cells, honoring quoted cells. Lines that
// are not valid CSV fall back to a plain comma split.
func splitRow(line string) []string {
	r := csv.NewReader(strings.NewReader(strings.TrimRight(line, "\r")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	cells, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return cells
}

// Fetch downloads the CSV at url and parses it with ParseIDs.
func Fetch(ctx context.Context, client *http.Client, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("CSVファイルの取得に失敗しました: %s", resp.Status)
	}
	return ParseIDs(io.LimitReader(resp.Body, maxCSVSize))
}
