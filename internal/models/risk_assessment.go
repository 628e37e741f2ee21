package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Risk score keys stored in RiskAssessment.RiskScores
const (
	RiskCavity        = "cavity_risk"
	RiskGumDisease    = "gum_disease_risk"
	RiskSensitivity   = "sensitivity_risk"
	RiskEnamelErosion = "enamel_erosion_risk"
)

// RiskKeys lists the risk dimensions in display order.
var RiskKeys = []string{RiskCavity, RiskGumDisease, RiskSensitivity, RiskEnamelErosion}

// RiskAssessment is an immutable questionnaire result; a user accumulates many.
type RiskAssessment struct {
	Base
	UserID          *uint          `gorm:"index" json:"user_id"`
	AssessmentData  datatypes.JSON `json:"assessment_data"`
	RiskScores      datatypes.JSON `json:"risk_scores"`
	Recommendations datatypes.JSON `json:"recommendations"`
}

// Scores decodes RiskScores. Unreadable or empty columns yield an empty map.
func (r *RiskAssessment) Scores() map[string]float64 {
	scores := map[string]float64{}
	if len(r.RiskScores) == 0 {
		return scores
	}
	_ = json.Unmarshal(r.RiskScores, &scores)
	return scores
}

// RecommendationList decodes Recommendations.
func (r *RiskAssessment) RecommendationList() []string {
	return decodeStrings(r.Recommendations)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// JSONOf marshals v into a JSON column value. Marshal failures store JSON null.
func JSONOf(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
