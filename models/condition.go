package models

// Condition names one health condition. Values are the external flag names.
type Condition string

const (
	ConditionDiabetes          Condition = "has_diabetes"
	ConditionHypertension      Condition = "has_hypertension"
	ConditionHyperlipidemia    Condition = "has_hyperlipidemia"
	ConditionObesity           Condition = "has_obesity"
	ConditionMetabolicSyndrome Condition = "has_metabolic_syndrome"
	ConditionGout              Condition = "has_gout"
	ConditionFattyLiver        Condition = "has_fatty_liver"
	ConditionThyroid           Condition = "has_thyroid"
	ConditionGastritis         Condition = "has_gastritis"
	ConditionIBS               Condition = "has_ibs"
	ConditionConstipation      Condition = "has_constipation"
	ConditionReflux            Condition = "has_reflux"
	ConditionPancreatitis      Condition = "has_pancreatitis"
	ConditionHeartDisease      Condition = "has_heart_disease"
	ConditionStroke            Condition = "has_stroke"
	ConditionAnemia            Condition = "has_anemia"
	ConditionOsteoporosis      Condition = "has_osteoporosis"
	ConditionFoodAllergy       Condition = "has_food_allergy"
)

// AllConditions lists every known condition in profile field order.
var AllConditions = []Condition{
	ConditionDiabetes,
	ConditionHypertension,
	ConditionHyperlipidemia,
	ConditionObesity,
	ConditionMetabolicSyndrome,
	ConditionGout,
	ConditionFattyLiver,
	ConditionThyroid,
	ConditionGastritis,
	ConditionIBS,
	ConditionConstipation,
	ConditionReflux,
	ConditionPancreatitis,
	ConditionHeartDisease,
	ConditionStroke,
	ConditionAnemia,
	ConditionOsteoporosis,
	ConditionFoodAllergy,
}

// ParseCondition reports whether name is a known condition flag.
func ParseCondition(name string) (Condition, bool) {
	for _, c := range AllConditions {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// HealthFlags is the fixed-shape column set stored on the user row.
// Code that reasons about conditions goes through Conditions/Set instead.
type HealthFlags struct {
	HasDiabetes          bool `gorm:"default:false"`
	HasHypertension      bool `gorm:"default:false"`
	HasHyperlipidemia    bool `gorm:"default:false"`
	HasObesity           bool `gorm:"default:false"`
	HasMetabolicSyndrome bool `gorm:"default:false"`
	HasGout              bool `gorm:"default:false"`
	HasFattyLiver        bool `gorm:"default:false"`
	HasThyroid           bool `gorm:"default:false"`
	HasGastritis         bool `gorm:"default:false"`
	HasIBS               bool `gorm:"column:has_ibs;default:false"`
	HasConstipation      bool `gorm:"default:false"`
	HasReflux            bool `gorm:"default:false"`
	HasPancreatitis      bool `gorm:"default:false"`
	HasHeartDisease      bool `gorm:"default:false"`
	HasStroke            bool `gorm:"default:false"`
	HasAnemia            bool `gorm:"default:false"`
	HasOsteoporosis      bool `gorm:"default:false"`
	HasFoodAllergy       bool `gorm:"default:false"`
}

func (f *HealthFlags) field(c Condition) *bool {
	switch c {
	case ConditionDiabetes:
		return &f.HasDiabetes
	case ConditionHypertension:
		return &f.HasHypertension
	case ConditionHyperlipidemia:
		return &f.HasHyperlipidemia
	case ConditionObesity:
		return &f.HasObesity
	case ConditionMetabolicSyndrome:
		return &f.HasMetabolicSyndrome
	case ConditionGout:
		return &f.HasGout
	case ConditionFattyLiver:
		return &f.HasFattyLiver
	case ConditionThyroid:
		return &f.HasThyroid
	case ConditionGastritis:
		return &f.HasGastritis
	case ConditionIBS:
		return &f.HasIBS
	case ConditionConstipation:
		return &f.HasConstipation
	case ConditionReflux:
		return &f.HasReflux
	case ConditionPancreatitis:
		return &f.HasPancreatitis
	case ConditionHeartDisease:
		return &f.HasHeartDisease
	case ConditionStroke:
		return &f.HasStroke
	case ConditionAnemia:
		return &f.HasAnemia
	case ConditionOsteoporosis:
		return &f.HasOsteoporosis
	case ConditionFoodAllergy:
		return &f.HasFoodAllergy
	}
	return nil
}

// Has reports whether condition c is set. Unknown conditions are never set.
func (f *HealthFlags) Has(c Condition) bool {
	if p := f.field(c); p != nil {
		return *p
	}
	return false
}

// Set toggles condition c. Unknown conditions are ignored.
func (f *HealthFlags) Set(c Condition, v bool) {
	if p := f.field(c); p != nil {
		*p = v
	}
}

// Conditions returns the set conditions in profile field order.
func (f *HealthFlags) Conditions() []Condition {
	var out []Condition
	for _, c := range AllConditions {
		if f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// FlagsFromConditions builds the fixed-shape record from a condition set.
func FlagsFromConditions(conds []Condition) HealthFlags {
	var f HealthFlags
	for _, c := range conds {
		f.Set(c, true)
	}
	return f
}

// AsMap renders every flag under its external name.
func (f *HealthFlags) AsMap() map[string]bool {
	out := make(map[string]bool, len(AllConditions))
	for _, c := range AllConditions {
		out[string(c)] = f.Has(c)
	}
	return out
}
