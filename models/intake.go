package models

import "time"

// IntakeRecord is one logged intake action. Date is the business date fixed
// at creation and never recomputed.
type IntakeRecord struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index:idx_intake_user_date,priority:1;not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"not null"`
	Date      string    `gorm:"type:varchar(10);index:idx_intake_user_date,priority:2;not null"` // YYYY-MM-DD
}

// IntakeImage is a stored upload attached to a business date.
type IntakeImage struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	ObjectKey string `gorm:"size:512;not null"`
	URL       string `gorm:"size:1024"`
	Note      string `gorm:"type:text"`
	Labels    string `gorm:"type:text"` // comma-separated, empty when labelling is off
	Date      string `gorm:"type:varchar(10);index;not null"`
	CreatedAt time.Time
}
