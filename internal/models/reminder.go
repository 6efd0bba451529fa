package models

import "time"

// Reminder is a one-shot message due at DueAt. An empty TeamName marks a personal reminder.
type Reminder struct {
	BaseModel

	OwnerID     int64      `gorm:"not null;index" json:"owner_id"`
	DueAt       time.Time  `gorm:"not null;index" json:"due_at"`
	Text        string     `gorm:"not null" json:"text"`
	TeamName    string     `gorm:"index" json:"team_name,omitempty"`
	DeliveredAt *time.Time `gorm:"index" json:"delivered_at,omitempty"`
}

// IsPersonal reports whether the reminder targets only its owner.
func (r *Reminder) IsPersonal() bool {
	return r.TeamName == ""
}

// Delivered reports whether the scheduler already handled the reminder.
func (r *Reminder) Delivered() bool {
	return r.DeliveredAt != nil
}
