// internal/models/member.go
package models

// MembersPerFamily is the number of roles in every family; a family is complete at this many cards.
const MembersPerFamily = 6

// Member is one of the six fixed relational roles within a family.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Members is the closed, ordered enumeration of roles. Deck order follows this order.
var Members = [MembersPerFamily]Member{
	{ID: "grandfather", Name: "Grandfather", Emoji: "👴"},
	{ID: "grandmother", Name: "Grandmother", Emoji: "👵"},
	{ID: "father", Name: "Father", Emoji: "👨"},
	{ID: "mother", Name: "Mother", Emoji: "👩"},
	{ID: "son", Name: "Son", Emoji: "👦"},
	{ID: "daughter", Name: "Daughter", Emoji: "👧"},
}

// MemberByID looks up a role by id.
func MemberByID(id string) (Member, bool) {
	for _, m := range Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}
