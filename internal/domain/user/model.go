package user

import "time"

// Profile is the application profile row kept in sync with the auth provider.
// The billing pipeline reads it to resolve a user's email for marketing sync.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
