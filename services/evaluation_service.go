package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"nutrilens/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// EvaluationResult is returned by a successful evaluation.
type EvaluationResult struct {
	Grade          string `json:"grade"`
	ScoreMacro     int    `json:"score_macro"`
	ScoreDisease   int    `json:"score_disease"`
	ScoreGoal      int    `json:"score_goal"`
	ScoreTotal     int    `json:"score_total"`
	ReasonMacro    string `json:"reason_macro"`
	ReasonDisease  string `json:"reason_disease"`
	ReasonGoal     string `json:"reason_goal"`
	AdviceMacro    string `json:"advice_macro"`
	AdviceDisease  string `json:"advice_disease"`
	AdviceGoal     string `json:"advice_goal"`
	IntakeSummary  string `json:"intake_summary"`
	FeedbackSaved  bool   `json:"feedback_saved"`
	RawGPTResponse string `json:"raw_gpt_response"`
	EvaluatedDate  string `json:"evaluated_date"`
}

type EvaluationService struct {
	db        *gorm.DB
	cal       *Calendar
	intake    *IntakeService
	history   *HistoryService
	completer Completer
	notifier  Notifier

	group singleflight.Group
}

// NewEvaluationService builds the evaluation pipeline. notifier may be nil.
func NewEvaluationService(db *gorm.DB, cal *Calendar, intake *IntakeService, history *HistoryService, completer Completer, notifier Notifier) *EvaluationService {
	return &EvaluationService{
		db:        db,
		cal:       cal,
		intake:    intake,
		history:   history,
		completer: completer,
		notifier:  notifier,
	}
}

// Evaluate scores the current business day of userID and stores the result.
// Requests for the same user and day that arrive while one is running share
// its outcome, even if the caller that started the run goes away.
func (s *EvaluationService) Evaluate(ctx context.Context, userID uint) (*EvaluationResult, error) {
	date := s.cal.Today()
	key := strconv.FormatUint(uint64(userID), 10) + ":" + date

	// The shared run must outlive any single caller; the completer bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.evaluate(shared, userID, date)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*EvaluationResult)
	return &res, nil
}

// evaluate runs the pipeline for one business date.
func (s *EvaluationService) evaluate(ctx context.Context, userID uint, date string) (*EvaluationResult, error) {
	intakeText, err := s.intake.Aggregate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	snap := SnapshotProfile(&user)
	summary := DiseaseSummary(snap.Conditions)

	raw, err := s.completer.Complete(ctx, BuildEvaluationPrompt(snap, intakeText))
	if err != nil {
		log.Printf("evaluation completion failed for user %d on %s: %v", userID, date, err)
		return nil, &ExternalCallError{Err: err}
	}

	parsed, err := ParseEvaluation(raw)
	if err != nil {
		log.Printf("evaluation reply unusable for user %d on %s: %v", userID, date, err)
		return nil, err
	}
	grade := Grade(parsed.Macro.Score, parsed.Disease.Score, parsed.Goal.Score)

	h := &models.DailyHistory{
		UserID:          userID,
		Date:            date,
		TotalIntakeText: intakeText,
		ScoreMacro:      parsed.Macro.Score,
		ScoreDisease:    parsed.Disease.Score,
		ScoreGoal:       parsed.Goal.Score,
		TotalGrade:      grade,
		CarbsG:          parsed.CarbsG,
		ProteinG:        parsed.ProteinG,
		FatG:            parsed.FatG,
		ReasonMacro:     parsed.Macro.Reason,
		ReasonDisease:   parsed.Disease.Reason,
		ReasonGoal:      parsed.Goal.Reason,
		AdviceMacro:     parsed.Macro.Advice,
		AdviceDisease:   parsed.Disease.Advice,
		AdviceGoal:      parsed.Goal.Advice,
		RawResponse:     raw,
		Gender:          snap.Gender,
		Age:             snap.Age,
		Height:          snap.Height,
		Weight:          snap.Weight,
		DietGoal:        snap.DietGoal,
		IsVegetarian:    snap.IsVegetarian,
		DiseaseSummary:  summary,
	}
	h.SetSnapshotConditions(snap.Conditions)
	if err := s.history.Upsert(ctx, h); err != nil {
		return nil, err
	}

	res := &EvaluationResult{
		Grade:          grade,
		ScoreMacro:     h.ScoreMacro,
		ScoreDisease:   h.ScoreDisease,
		ScoreGoal:      h.ScoreGoal,
		ScoreTotal:     h.ScoreMacro + h.ScoreDisease + h.ScoreGoal,
		ReasonMacro:    h.ReasonMacro,
		ReasonDisease:  h.ReasonDisease,
		ReasonGoal:     h.ReasonGoal,
		AdviceMacro:    h.AdviceMacro,
		AdviceDisease:  h.AdviceDisease,
		AdviceGoal:     h.AdviceGoal,
		IntakeSummary:  intakeText,
		FeedbackSaved:  true,
		RawGPTResponse: raw,
		EvaluatedDate:  date,
	}
	if s.notifier != nil {
		s.notifier.EvaluationCompleted(userID, res)
	}
	return res, nil
}

// History lists stored evaluations, newest first.
func (s *EvaluationService) History(ctx context.Context, userID uint, page int) (*HistoryPage, error) {
	return s.history.List(ctx, userID, page)
}

// HistoryFor returns the stored evaluation of one date.
func (s *EvaluationService) HistoryFor(ctx context.Context, userID uint, date string) (*models.DailyHistory, error) {
	d, err := s.cal.ParseDate(date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string][]string{"date": {"Date has wrong format. Use YYYY-MM-DD."}}}
	}
	return s.history.Get(ctx, userID, d)
}
