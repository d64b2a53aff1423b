package services

import (
	"strings"
	"testing"

	"nutrilens/models"
)

func TestDiseaseSummary(t *testing.T) {
	var flags models.HealthFlags
	flags.HasDiabetes = true
	flags.HasGout = true
	if got := DiseaseSummary(flags.Conditions()); got != "Diabetes, Gout" {
		t.Fatalf("DiseaseSummary = %q", got)
	}

	var none models.HealthFlags
	if got := DiseaseSummary(none.Conditions()); got != "None" {
		t.Fatalf("DiseaseSummary(empty) = %q", got)
	}
}

func TestHumanizeCondition(t *testing.T) {
	cases := map[models.Condition]string{
		models.ConditionHeartDisease:      "Heart Disease",
		models.ConditionIBS:               "Ibs",
		models.ConditionMetabolicSyndrome: "Metabolic Syndrome",
		models.ConditionFoodAllergy:       "Food Allergy",
	}
	for c, want := range cases {
		if got := HumanizeCondition(c); got != want {
			t.Errorf("HumanizeCondition(%s) = %q, want %q", c, got, want)
		}
	}
}

func TestBuildEvaluationPrompt(t *testing.T) {
	p := ProfileSnapshot{
		Gender:       "F",
		Age:          34,
		Height:       165,
		Weight:       58.5,
		IsVegetarian: true,
		DietGoal:     models.DietGoalLoss,
		Conditions:   []models.Condition{models.ConditionHypertension},
	}
	out := BuildEvaluationPrompt(p, "oatmeal\nsalad")

	for _, want := range []string{
		"Gender: F\n",
		"Age: 34\n",
		"Height: 165 cm\n",
		"Weight: 58.5 kg\n",
		"BMI: 21.5 (Normal weight)\n",
		"Health Conditions: Hypertension\n",
		"Vegetarian: Yes\n",
		"Diet Goal: loss\n",
		"[Intake Today]\noatmeal\nsalad\n",
		`"carbs_g": <integer>`,
		`"disease": {`,
		`"goal": {`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildEvaluationPromptSkipsImplausibleBMI(t *testing.T) {
	out := BuildEvaluationPrompt(ProfileSnapshot{Gender: "M"}, "rice")
	if strings.Contains(out, "BMI:") {
		t.Fatal("BMI line rendered for an empty profile")
	}
	if !strings.Contains(out, "Health Conditions: None\n") || !strings.Contains(out, "Vegetarian: No\n") {
		t.Fatal("defaults not rendered")
	}
}

func TestSnapshotProfileCopiesConditions(t *testing.T) {
	u := &models.User{Gender: "M", Age: 40}
	u.HasGout = true
	snap := SnapshotProfile(u)
	u.HasGout = false
	u.HasStroke = true

	if len(snap.Conditions) != 1 || snap.Conditions[0] != models.ConditionGout {
		t.Fatalf("snapshot changed with profile: %v", snap.Conditions)
	}
}
