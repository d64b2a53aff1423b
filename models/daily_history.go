package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DailyHistory is the evaluation of one user's business day. At most one row
// exists per (user, date).
type DailyHistory struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          uint   `gorm:"uniqueIndex:idx_history_user_date,priority:1;not null"`
	Date            string `gorm:"type:varchar(10);uniqueIndex:idx_history_user_date,priority:2;not null"`
	TotalIntakeText string `gorm:"type:text"`

	ScoreMacro   int
	ScoreDisease int
	ScoreGoal    int
	TotalGrade   string `gorm:"size:1"`

	// model estimates; nil when the reply had no usable number
	CarbsG   *int
	ProteinG *int
	FatG     *int

	ReasonMacro   string `gorm:"type:text"`
	ReasonDisease string `gorm:"type:text"`
	ReasonGoal    string `gorm:"type:text"`
	AdviceMacro   string `gorm:"type:text"`
	AdviceDisease string `gorm:"type:text"`
	AdviceGoal    string `gorm:"type:text"`

	RawResponse string `gorm:"type:text"`

	// profile snapshot, frozen at evaluation time
	Gender         string `gorm:"size:1"`
	Age            uint
	Height         float64
	Weight         float64
	DietGoal       string `gorm:"size:20"`
	IsVegetarian   bool
	Conditions     datatypes.JSON
	DiseaseSummary string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SnapshotConditions decodes the stored condition set.
func (h *DailyHistory) SnapshotConditions() []Condition {
	var out []Condition
	if len(h.Conditions) == 0 {
		return out
	}
	_ = json.Unmarshal(h.Conditions, &out)
	return out
}

// SetSnapshotConditions encodes conds into the snapshot column.
func (h *DailyHistory) SetSnapshotConditions(conds []Condition) {
	if conds == nil {
		conds = []Condition{}
	}
	b, _ := json.Marshal(conds)
	h.Conditions = datatypes.JSON(b)
}
