package models

import "gorm.io/datatypes"

// NutritionLog records one analysed meal or drink.
type NutritionLog struct {
	Base
	UserID          *uint          `gorm:"index" json:"user_id"`
	FoodDescription string         `gorm:"type:text" json:"food_description"`
	Summary         string         `gorm:"type:text" json:"summary"`
	Calories        float64        `json:"calories"`
	SugarContent    float64        `json:"sugar_content"`
	AcidityLevel    float64        `json:"acidity_level"`
	HealthScore     float64        `json:"health_score"`
	Recommendations datatypes.JSON `json:"recommendations"`
}

// RecommendationList decodes Recommendations.
func (n *NutritionLog) RecommendationList() []string {
	return decodeStrings(n.Recommendations)
}
