package model

import "time"

// Task is a subscription: notify the user once the museum has free slots
// on the next event Sunday. A user tracks each museum at most once.
type Task struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index:idx_user_museum,unique"`
	User      User  `gorm:"foreignKey:UserID"`
	MuseumID  int   `gorm:"index:idx_user_museum,unique"`
	CreatedAt time.Time
}
