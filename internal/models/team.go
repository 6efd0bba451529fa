package models

import (
	"slices"

	"gorm.io/datatypes"
)

// Team is a named group of chat users. Names are not unique.
type Team struct {
	BaseModel

	Name      string                     `gorm:"not null;index" json:"name"`
	Members   datatypes.JSONSlice[int64] `gorm:"not null" json:"members"`
	CreatedBy int64                      `gorm:"not null;index" json:"created_by"`
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID int64) bool {
	return slices.Contains(t.Members, userID)
}

// AddMember appends userID unless already present. It reports whether the set changed.
func (t *Team) AddMember(userID int64) bool {
	if t.HasMember(userID) {
		return false
	}
	t.Members = append(t.Members, userID)
	return true
}

// RemoveMember drops userID keeping the order of the remaining members.
func (t *Team) RemoveMember(userID int64) bool {
	idx := slices.Index(t.Members, userID)
	if idx < 0 {
		return false
	}
	t.Members = slices.Delete(slices.Clone(t.Members), idx, idx+1)
	return true
}
