package model

import "time"

// User is someone allowed to talk to the bot. The primary key is the
// Telegram chat id, so there is no separate surrogate key.
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Name      string
	Webhook   string
	CreatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
