package portfolio

import "time"

// Portfolio is the hosted-portfolio row owned by the portfolio product. The
// billing pipeline only reads it and flips is_published when a subscription
// lapses.
type Portfolio struct {
	ID          string    `gorm:"primaryKey;size:50" json:"id"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	Slug        string    `gorm:"size:191;uniqueIndex" json:"slug"`
	IsPublished bool      `gorm:"default:false;index" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}
