// internal/notion/user.go
package notion

import "encoding/json"

// UserKind tells a full user profile apart from a bare id reference.
type UserKind int

const (
	// PartialUser carries only an id.
	PartialUser UserKind = iota
	// FullUser carries a profile whose name may still be null.
	FullUser
)

func (k UserKind) String() string {
	if k == FullUser {
		return "full"
	}
	return "partial"
}

// User is a reference to a Notion user. The API sends either a full profile
// (with a "type" of person or bot) or a partial object holding only the id.
type User struct {
	Kind      UserKind
	ID        string
	UserType  string
	Name      *string
	AvatarURL *string
	Email     *string
}

type userWire struct {
	Object    string  `json:"object"`
	ID        string  `json:"id"`
	Type      *string `json:"type,omitempty"`
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Person    *struct {
		Email *string `json:"email,omitempty"`
	} `json:"person,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*u = User{ID: w.ID, Name: w.Name, AvatarURL: w.AvatarURL}
	if w.Type != nil {
		u.Kind = FullUser
		u.UserType = *w.Type
	}
	if w.Person != nil {
		u.Email = w.Person.Email
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	w := userWire{Object: "user", ID: u.ID}
	if u.Kind == FullUser {
		t := u.UserType
		w.Type = &t
		w.Name = u.Name
		w.AvatarURL = u.AvatarURL
	}
	return json.Marshal(w)
}
