package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/samber/lo"
)

// ProfileSnapshot is the subset of a profile an evaluation depends on. It is
// copied into the history row and never re-read from the live profile.
type ProfileSnapshot struct {
	Gender       string
	Age          uint
	Height       float64
	Weight       float64
	IsVegetarian bool
	DietGoal     string
	Conditions   []models.Condition
}

func SnapshotProfile(u *models.User) ProfileSnapshot {
	return ProfileSnapshot{
		Gender:       u.Gender,
		Age:          u.Age,
		Height:       u.Height,
		Weight:       u.Weight,
		IsVegetarian: u.IsVegetarian,
		DietGoal:     u.DietGoal,
		Conditions:   append([]models.Condition(nil), u.Conditions()...),
	}
}

// HumanizeCondition turns "has_heart_disease" into "Heart Disease".
func HumanizeCondition(c models.Condition) string {
	name := strings.TrimPrefix(string(c), "has_")
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// DiseaseSummary joins the humanized conditions, or returns "None".
func DiseaseSummary(conds []models.Condition) string {
	if len(conds) == 0 {
		return "None"
	}
	return strings.Join(lo.Map(conds, func(c models.Condition, _ int) string {
		return HumanizeCondition(c)
	}), ", ")
}

const evaluationInstructions = `Please evaluate the user's daily diet in the following three categories.

Ignore any lines that are not related to food or supplement intake.

For each category, return:
- A score between 0 and 10 (integer)
- A brief reason for the score (1–2 sentences, English only)
- One suggestion for improvement (1 sentence, English only)

Additionally for the "macro" category ONLY, estimate the user's daily intake of macronutrients in grams:
- carbs_g, protein_g, fat_g
These should be non-negative integers (grams) rounded to the nearest whole number. If you are unsure, provide your best estimate.

Respond strictly in this JSON format:

{
  "macro": {
    "score": <integer 0–10>,
    "reason": "<why this macro score>",
    "advice": "<tip to improve macro score>",
    "carbs_g": <integer>,
    "protein_g": <integer>,
    "fat_g": <integer>
  },
  "disease": {
    "score": <integer 0–10>,
    "reason": "<why this disease score>",
    "advice": "<tip to improve disease score>"
  },
  "goal": {
    "score": <integer 0–10>,
    "reason": "<why this goal score>",
    "advice": "<tip to improve goal score>"
  }
}
`

// BuildEvaluationPrompt renders the single-turn request sent to the
// completion service. The JSON shape it asks for is what ParseEvaluation reads.
func BuildEvaluationPrompt(p ProfileSnapshot, intake string) string {
	var b strings.Builder
	b.WriteString("You are a professional health consultant. Below is a user's profile and today's food/supplement intake.\n\n")

	b.WriteString("[User Profile]\n")
	fmt.Fprintf(&b, "Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "Age: %d\n", p.Age)
	fmt.Fprintf(&b, "Height: %s cm\n", formatNumber(p.Height))
	fmt.Fprintf(&b, "Weight: %s kg\n", formatNumber(p.Weight))
	if bmi, err := utils.CalculateBMI(p.Height, p.Weight); err == nil {
		fmt.Fprintf(&b, "BMI: %.1f (%s)\n", bmi, utils.BMICategory(bmi))
	}
	fmt.Fprintf(&b, "Health Conditions: %s\n", DiseaseSummary(p.Conditions))
	fmt.Fprintf(&b, "Vegetarian: %s\n", lo.Ternary(p.IsVegetarian, "Yes", "No"))
	fmt.Fprintf(&b, "Diet Goal: %s\n\n", p.DietGoal)

	b.WriteString("[Intake Today]\n")
	b.WriteString(intake)
	b.WriteString("\n\n")

	b.WriteString(evaluationInstructions)
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
