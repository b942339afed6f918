// internal/models/family.go
package models

// Family is a themed group of six collectible cards, one per Member role.
// Families are created by the catalog (seed set or generated) and never mutated afterwards.
type Family struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Theme string `json:"theme,omitempty"`
	Emoji string `json:"emoji,omitempty"`
}

// FamilyIDs returns the ids of the given families, preserving order.
func FamilyIDs(families []Family) []string {
	ids := make([]string, 0, len(families))
	for _, f := range families {
		ids = append(ids, f.ID)
	}
	return ids
}

// FamilyNames returns the display names of the given families, preserving order.
func FamilyNames(families []Family) []string {
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.Name)
	}
	return names
}
