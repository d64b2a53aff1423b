package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrilens/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryPageSize is the fixed page size of the history listing.
const HistoryPageSize = 10

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Upsert writes h as the only evaluation of (h.UserID, h.Date). An existing
// row keeps its id and creation time; every other column is replaced.
func (s *HistoryService) Upsert(ctx context.Context, h *models.DailyHistory) error {
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_intake_text",
			"score_macro", "score_disease", "score_goal", "total_grade",
			"carbs_g", "protein_g", "fat_g",
			"reason_macro", "reason_disease", "reason_goal",
			"advice_macro", "advice_disease", "advice_goal",
			"raw_response",
			"gender", "age", "height", "weight", "diet_goal", "is_vegetarian",
			"conditions", "disease_summary",
			"updated_at",
		}),
	}).Create(h).Error
	if err != nil {
		return fmt.Errorf("upsert daily history: %w", err)
	}
	return nil
}

// HistoryPage is one page of a user's evaluations, newest date first.
type HistoryPage struct {
	Count    int64                 `json:"count"`
	Page     int                   `json:"page"`
	Next     *int                  `json:"next"`
	Previous *int                  `json:"previous"`
	Results  []models.DailyHistory `json:"-"`
}

// List returns page (1-based) of the user's evaluations.
func (s *HistoryService) List(ctx context.Context, userID uint, page int) (*HistoryPage, error) {
	if page < 1 {
		return nil, &ValidationError{Fields: map[string][]string{"page": {"Invalid page."}}}
	}
	q := s.db.WithContext(ctx).Model(&models.DailyHistory{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	pages := int((total + HistoryPageSize - 1) / HistoryPageSize)
	if page > 1 && page > pages {
		return nil, &ValidationError{Fields: map[string][]string{"page": {"Invalid page."}}}
	}

	var rows []models.DailyHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(HistoryPageSize).
		Offset((page - 1) * HistoryPageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	out := &HistoryPage{Count: total, Page: page, Results: rows}
	if page < pages {
		n := page + 1
		out.Next = &n
	}
	if page > 1 {
		p := page - 1
		out.Previous = &p
	}
	return out, nil
}

// Get returns the evaluation of one business date.
func (s *HistoryService) Get(ctx context.Context, userID uint, date string) (*models.DailyHistory, error) {
	var h models.DailyHistory
	err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &h, nil
}

// HistoryDTO is the API shape of a stored evaluation.
type HistoryDTO struct {
	ID              uint     `json:"id"`
	Date            string   `json:"date"`
	TotalIntakeText string   `json:"total_intake_text"`
	ScoreMacro      int      `json:"score_macro"`
	ScoreDisease    int      `json:"score_disease"`
	ScoreGoal       int      `json:"score_goal"`
	ScoreTotal      int      `json:"score_total"`
	TotalGrade      string   `json:"total_grade"`
	CarbsG          *int     `json:"carbs_g"`
	ProteinG        *int     `json:"protein_g"`
	FatG            *int     `json:"fat_g"`
	ReasonMacro     string   `json:"reason_macro"`
	ReasonDisease   string   `json:"reason_disease"`
	ReasonGoal      string   `json:"reason_goal"`
	AdviceMacro     string   `json:"advice_macro"`
	AdviceDisease   string   `json:"advice_disease"`
	AdviceGoal      string   `json:"advice_goal"`
	Gender          string   `json:"gender"`
	Age             uint     `json:"age"`
	Height          float64  `json:"height"`
	Weight          float64  `json:"weight"`
	DietGoal        string   `json:"diet_goal"`
	IsVegetarian    bool     `json:"is_vegetarian"`
	Conditions      []string `json:"conditions"`
	DiseaseSummary  string   `json:"disease_summary"`
}

func HistoryResponse(h *models.DailyHistory) HistoryDTO {
	conds := h.SnapshotConditions()
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = string(c)
	}
	return HistoryDTO{
		ID:              h.ID,
		Date:            h.Date,
		TotalIntakeText: h.TotalIntakeText,
		ScoreMacro:      h.ScoreMacro,
		ScoreDisease:    h.ScoreDisease,
		ScoreGoal:       h.ScoreGoal,
		ScoreTotal:      h.ScoreMacro + h.ScoreDisease + h.ScoreGoal,
		TotalGrade:      h.TotalGrade,
		CarbsG:          h.CarbsG,
		ProteinG:        h.ProteinG,
		FatG:            h.FatG,
		ReasonMacro:     h.ReasonMacro,
		ReasonDisease:   h.ReasonDisease,
		ReasonGoal:      h.ReasonGoal,
		AdviceMacro:     h.AdviceMacro,
		AdviceDisease:   h.AdviceDisease,
		AdviceGoal:      h.AdviceGoal,
		Gender:          h.Gender,
		Age:             h.Age,
		Height:          h.Height,
		Weight:          h.Weight,
		DietGoal:        h.DietGoal,
		IsVegetarian:    h.IsVegetarian,
		Conditions:      names,
		DiseaseSummary:  h.DiseaseSummary,
	}
}
