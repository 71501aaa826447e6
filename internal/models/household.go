package models

// Household represents a set of roommates who share expenses.
type Household struct {
	// ID is the unique identifier for the household (UUID format).
	ID string

	// Name is the display name of the household (e.g., "Elm Street Flat").
	Name string

	// Members is the list of roommate names in this household.
	Members []string

	// CreatedAt is the Unix timestamp when the household was created.
	CreatedAt int64
}

// HasMember reports whether name is one of the household's members.
func (h *Household) HasMember(name string) bool {
	for _, m := range h.Members {
		if m == name {
			return true
		}
	}
	return false
}
