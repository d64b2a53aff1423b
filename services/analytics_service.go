package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"nutrilens/models"

	"gorm.io/gorm"
)

type AnalyticsService struct {
	db  *gorm.DB
	cal *Calendar
}

func NewAnalyticsService(db *gorm.DB, cal *Calendar) *AnalyticsService {
	return &AnalyticsService{db: db, cal: cal}
}

// ---------- Summary ----------

type ScoreAvg struct {
	Macro   float64 `json:"macro"`
	Disease float64 `json:"disease"`
	Goal    float64 `json:"goal"`
	Total   float64 `json:"total"`
}

type MacroAvg struct {
	AvgGrams float64 `json:"avg_grams"`
	Days     int     `json:"days"` // days with a usable estimate
}

type AnalyticsSummary struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`

	Scores ScoreAvg            `json:"scores"`
	Grades map[string]int      `json:"grades"`
	Macros map[string]MacroAvg `json:"macros"` // carbs, protein, fat

	Metadata struct {
		DaysEvaluated      int  `json:"days_evaluated"`
		DaysCounted        int  `json:"days_counted"`
		IncludeMissingDays bool `json:"include_missing_days"`
	} `json:"metadata"`
}

// Summary averages the stored evaluations between from and to (inclusive
// business dates). With includeMissing, days without an evaluation count as
// zero scores.
func (s *AnalyticsService) Summary(ctx context.Context, userID uint, from, to string, includeMissing bool) (*AnalyticsSummary, error) {
	rows, err := s.load(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	days := len(rows)
	if includeMissing {
		days, err = daySpan(from, to)
		if err != nil {
			return nil, err
		}
	}

	out := &AnalyticsSummary{
		Grades: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0},
	}
	out.Range.From, out.Range.To = from, to
	out.Metadata.DaysEvaluated = len(rows)
	out.Metadata.DaysCounted = days
	out.Metadata.IncludeMissingDays = includeMissing

	type acc struct {
		sum float64
		n   int
	}
	var macro, disease, goal float64
	grams := map[string]*acc{"carbs": {}, "protein": {}, "fat": {}}
	for _, r := range rows {
		macro += float64(r.ScoreMacro)
		disease += float64(r.ScoreDisease)
		goal += float64(r.ScoreGoal)
		out.Grades[r.TotalGrade]++

		for k, v := range map[string]*int{"carbs": r.CarbsG, "protein": r.ProteinG, "fat": r.FatG} {
			if v != nil {
				grams[k].sum += float64(*v)
				grams[k].n++
			}
		}
	}

	out.Scores = ScoreAvg{
		Macro:   avg(macro, days),
		Disease: avg(disease, days),
		Goal:    avg(goal, days),
		Total:   avg(macro+disease+goal, days),
	}
	out.Macros = make(map[string]MacroAvg, len(grams))
	for k, a := range grams {
		out.Macros[k] = MacroAvg{AvgGrams: avg(a.sum, a.n), Days: a.n}
	}
	return out, nil
}

// ---------- Weekly Overview ----------

type DayScore struct {
	Date  string `json:"date"`
	Day   string `json:"day"` // Mon..Sun
	Grade string `json:"grade,omitempty"`
	Total *int   `json:"total"` // nil when the day was not evaluated
}

type WeeklyOverviewResponse struct {
	WeekStart string     `json:"week_start"`
	Days      []DayScore `json:"days"`
	Best      *DayScore  `json:"best,omitempty"`
}

// WeeklyOverview lists the seven business dates of the week containing
// weekOf (Monday first) with their totals.
func (s *AnalyticsService) WeeklyOverview(ctx context.Context, userID uint, weekOf string) (*WeeklyOverviewResponse, error) {
	t, err := time.ParseInLocation(DateLayout, weekOf, s.cal.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid week date %q: %w", weekOf, err)
	}
	start := startOfWeek(t)
	end := start.AddDate(0, 0, 6)

	rows, err := s.load(ctx, userID, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]models.DailyHistory, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := &WeeklyOverviewResponse{WeekStart: start.Format(DateLayout)}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		day := DayScore{Date: key, Day: d.Weekday().String()[:3]}
		if r, ok := byDate[key]; ok {
			total := r.ScoreMacro + r.ScoreDisease + r.ScoreGoal
			day.Total = &total
			day.Grade = r.TotalGrade
		}
		out.Days = append(out.Days, day)
	}
	for i := range out.Days {
		d := &out.Days[i]
		if d.Total != nil && (out.Best == nil || *d.Total > *out.Best.Total) {
			out.Best = d
		}
	}
	return out, nil
}

func (s *AnalyticsService) load(ctx context.Context, userID uint, from, to string) ([]models.DailyHistory, error) {
	var rows []models.DailyHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history range: %w", err)
	}
	return rows, nil
}

// daySpan counts the dates from..to inclusive.
func daySpan(from, to string) (int, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours()/24) + 1, nil
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -offset)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
