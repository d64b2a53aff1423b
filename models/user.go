package models

import (
	"time"

	"gorm.io/gorm"
)

// Diet goals accepted on the profile.
const (
	DietGoalLoss     = "loss"
	DietGoalMaintain = "maintain"
	DietGoalGain     = "gain"
)

type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;size:150;not null"`
	Password string `gorm:"not null"`
	Email    string `gorm:"size:254"`
	Name     string `gorm:"size:50"`
	Gender   string `gorm:"size:1"` // "M" | "F"
	Age      uint
	Height   float64 // cm
	Weight   float64 // kg

	HealthFlags

	IsVegetarian bool
	DietGoal     string `gorm:"size:10"`

	ResetCode    string `gorm:"size:16;index"`
	ResetCodeExp time.Time
}
