package roster

import (
	"encoding/json"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/apperr"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

// Property names of the event database.
const (
	PropertyEventName = "名前"
	PropertyEventDate = "開催日"
	PropertyRoster    = "ファイル&メディア"
)

// Client-facing messages for rejected requests.
const (
	MsgNoPageID      = "ページIDが指定されていません。Notionオートメーションの設定を確認してください。"
	MsgMalformed     = "Notionフォームのデータ形式が不正です"
	MsgNoEventName   = "イベント名が指定されていません"
	MsgNoEventDate   = "開催日が指定されていません"
	MsgNoRosterFile  = "CSVファイルが見つかりません"
	MsgNoStudentIDs  = "CSVファイルに有効な生徒IDが含まれていません"
	MsgNoStudents    = "指定されたIDに一致する生徒が見つかりませんでした"
	MsgNotEventPage  = "指定されたページはイベントデータベースに属していません"
	MsgUpdated       = "イベントの参加者を更新しました"
	MsgProcessFailed = "データ処理中にエラーが発生しました"
)

// Request is an event page whose participants should be synced from its
// attached roster.
type Request struct {
	PageID    string
	EventName string
	EventDate string
	CSVURL    string
}

type requestBody struct {
	PageID string       `json:"pageId"`
	Data   *notion.Page `json:"data"`
}

// ParseRequest reads the body an automation posts from an event page. The
// page id is taken from "pageId", else from the page itself. The event
// name, date and roster file are read from the page's properties.
func ParseRequest(body []byte) (*Request, error) {
	var in requestBody
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, apperr.InvalidRequest(MsgMalformed)
	}

	req := &Request{PageID: in.PageID}
	if req.PageID == "" && in.Data != nil {
		req.PageID = in.Data.ID
	}
	if req.PageID == "" {
		return nil, apperr.InvalidRequest(MsgNoPageID)
	}
	if in.Data == nil || in.Data.Properties.Len() == 0 {
		return nil, apperr.InvalidRequest(MsgMalformed)
	}

	props := in.Data.Properties
	if v, ok := props.Get(PropertyEventName); ok {
		if t, ok := v.(notion.Title); ok && len(t.Runs) > 0 {
			req.EventName = t.Runs[0].PlainText
		}
	}
	if v, ok := props.Get(PropertyEventDate); ok {
		if d, ok := v.(notion.Date); ok && d.Range != nil {
			req.EventDate = d.Range.Start
		}
	}
	if v, ok := props.Get(PropertyRoster); ok {
		if f, ok := v.(notion.Files); ok && len(f.Files) > 0 {
			req.CSVURL = fileURL(f.Files[0])
		}
	}

	switch {
	case req.EventName == "":
		return nil, apperr.InvalidRequest(MsgNoEventName)
	case req.EventDate == "":
		return nil, apperr.InvalidRequest(MsgNoEventDate)
	case req.CSVURL == "":
		return nil, apperr.InvalidRequest(MsgNoRosterFile)
	}
	return req, nil
}

func fileURL(f notion.File) string {
	switch {
	case f.File != nil:
		return f.File.URL
	case f.External != nil:
		return f.External.URL
	}
	return ""
}
