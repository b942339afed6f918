// internal/models/card.go
package models

// Card is a single (Family, Member) pair. The ID is derived from both so that a card
// is unique within any deck built from distinct families.
type Card struct {
	ID          string `json:"id"`
	FamilyID    string `json:"familyId"`
	FamilyName  string `json:"familyName"`
	FamilyColor string `json:"familyColor"`
	FamilyTheme string `json:"familyTheme,omitempty"`
	FamilyEmoji string `json:"familyEmoji,omitempty"`
	MemberID    string `json:"memberId"`
	MemberName  string `json:"memberName"`
	MemberEmoji string `json:"memberEmoji"`
}

// CardID builds the canonical card id for a family/member pair.
func CardID(familyID, memberID string) string {
	return familyID + "-" + memberID
}

// NewCard builds the card for the given family and member.
func NewCard(f Family, m Member) Card {
	return Card{
		ID:          CardID(f.ID, m.ID),
		FamilyID:    f.ID,
		FamilyName:  f.Name,
		FamilyColor: f.Color,
		FamilyTheme: f.Theme,
		FamilyEmoji: f.Emoji,
		MemberID:    m.ID,
		MemberName:  m.Name,
		MemberEmoji: m.Emoji,
	}
}

// Matches reports whether the card is the exact (family, member) pair.
func (c Card) Matches(familyID, memberID string) bool {
	return c.FamilyID == familyID && c.MemberID == memberID
}
