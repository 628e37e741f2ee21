package llm

import (
	"fmt"
	"math"
	"strings"

	"github.com/prodentai/companion/internal/models"
)

// Source tells callers whether a result came from the model or a fallback.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// RiskResult is a risk assessment with one score per dimension in [0,1].
type RiskResult struct {
	Scores          map[string]float64 `json:"risk_scores"`
	Recommendations []string           `json:"recommendations"`
	Source          string             `json:"source"`
}

// NutritionResult is the dental-health analysis of a meal.
type NutritionResult struct {
	FoodItems       []string `json:"food_items"`
	Summary         string   `json:"summary"`
	SugarContent    float64  `json:"sugar_content"`
	AcidityLevel    float64  `json:"acidity_level"`
	AcidityCategory string   `json:"acidity_category"`
	HealthScore     float64  `json:"health_score"`
	Calories        float64  `json:"calories"`
	Recommendations []string `json:"recommendations"`
	Source          string   `json:"source"`
}

// Reply is a free-text chat answer.
type Reply struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Per-dimension values used when a model answer omits a score.
var missingRiskDefaults = map[string]float64{
	models.RiskCavity:        0.3,
	models.RiskGumDisease:    0.2,
	models.RiskSensitivity:   0.4,
	models.RiskEnamelErosion: 0.1,
}

var riskAdvice = map[string]string{
	models.RiskCavity:        "Brush twice a day with fluoride toothpaste and cut down on sugary snacks between meals.",
	models.RiskGumDisease:    "Floss every day and consider an antibacterial mouthwash to protect your gums.",
	models.RiskSensitivity:   "Switch to a toothpaste for sensitive teeth and avoid very hot or very cold food.",
	models.RiskEnamelErosion: "Limit acidic drinks and wait 30 minutes after eating before you brush.",
}

var generalRecommendations = []string{
	"Brush your teeth twice a day with fluoride toothpaste.",
	"Floss daily to clean between your teeth.",
	"Visit your dentist for a check-up every 6 months.",
}

var fallbackRiskRecommendations = []string{
	"Use a fluoride toothpaste.",
	"Limit acidic drinks.",
	"Floss regularly.",
}

var mealRecommendations = []string{
	"Rinse your mouth with water after eating.",
	"Wait 30 minutes before brushing your teeth.",
}

// FallbackRisk is the assessment returned when the model cannot be used.
func FallbackRisk() RiskResult {
	scores := make(map[string]float64, len(models.RiskKeys))
	for _, key := range models.RiskKeys {
		scores[key] = 0.5
	}
	return RiskResult{
		Scores:          scores,
		Recommendations: append([]string(nil), fallbackRiskRecommendations...),
		Source:          SourceFallback,
	}
}

// RiskFromOutcome maps a parsed completion to a risk result. Missing scores
// are back-filled per dimension and missing recommendations are derived from
// the scores. Malformed and empty outcomes yield FallbackRisk.
func RiskFromOutcome(out Outcome) RiskResult {
	if out.Kind != OutcomeOK {
		return FallbackRisk()
	}

	scores := make(map[string]float64, len(models.RiskKeys))
	for _, key := range models.RiskKeys {
		if v, ok := number(out.Payload[key]); ok {
			scores[key] = clamp(v, 0, 1)
		} else {
			scores[key] = missingRiskDefaults[key]
		}
	}

	recs := stringList(out.Payload["recommendations"])
	if len(recs) == 0 {
		recs = RecommendationsForScores(scores)
	}
	return RiskResult{Scores: scores, Recommendations: recs, Source: SourceAI}
}

// RecommendationsForScores gives one tip per dimension above 0.5, or general
// hygiene tips when no dimension is elevated.
func RecommendationsForScores(scores map[string]float64) []string {
	var recs []string
	for _, key := range models.RiskKeys {
		if scores[key] > 0.5 {
			recs = append(recs, riskAdvice[key])
		}
	}
	if len(recs) == 0 {
		recs = append(recs, generalRecommendations...)
	}
	return recs
}

// FallbackNutrition is the analysis returned when no usable JSON came back.
// The summary is always non-empty; health score is 5.0 and acidity 7.0.
func FallbackNutrition(description string) NutritionResult {
	words := strings.Fields(description)
	items := []string{"unknown"}
	summary := "Could not analyse the meal. Try describing it in more detail or send a clearer photo."
	if len(words) > 0 {
		if len(words) > 5 {
			words = words[:5]
		}
		items = words
		summary = fmt.Sprintf("Analysed meal: %s. Remember to look after your oral hygiene after eating.", strings.Join(words, ", "))
	}
	return NutritionResult{
		FoodItems:       items,
		Summary:         summary,
		SugarContent:    0,
		AcidityLevel:    7.0,
		AcidityCategory: "neutral",
		HealthScore:     5.0,
		Calories:        0,
		Recommendations: append([]string(nil), mealRecommendations...),
		Source:          SourceFallback,
	}
}

// NutritionFromOutcome maps a parsed text-analysis completion to a result.
func NutritionFromOutcome(out Outcome, description string) NutritionResult {
	if out.Kind != OutcomeOK {
		return FallbackNutrition(description)
	}
	return nutritionFromPayload(out.Payload, description, 3, false)
}

// NutritionFromImageOutcome maps a parsed vision completion to a result. A
// non-JSON answer that is not a refusal is kept as the summary.
func NutritionFromImageOutcome(out Outcome, description string) NutritionResult {
	switch out.Kind {
	case OutcomeOK:
		return nutritionFromPayload(out.Payload, description, 5, true)
	case OutcomeMalformed:
		if out.Raw != "" && !isRefusal(out.Raw) {
			res := FallbackNutrition(description)
			res.Summary = truncate(out.Raw, 500)
			return res
		}
	}
	return FallbackNutrition(description)
}

func nutritionFromPayload(p map[string]interface{}, description string, summaryItems int, withNotes bool) NutritionResult {
	res := NutritionResult{
		FoodItems:       stringList(p["food_items"]),
		Summary:         strings.TrimSpace(stringValue(p["summary"])),
		AcidityCategory: strings.TrimSpace(stringValue(p["acidity_category"])),
		Recommendations: stringList(p["recommendations"]),
		AcidityLevel:    7.0,
		HealthScore:     5.0,
		Source:          SourceAI,
	}
	if v, ok := number(p["sugar_content"]); ok {
		res.SugarContent = math.Max(v, 0)
	}
	if v, ok := number(p["acidity_level"]); ok {
		res.AcidityLevel = clamp(v, 0, 14)
	}
	if v, ok := number(p["health_score"]); ok {
		res.HealthScore = clamp(v, 0, 10)
	}
	if v, ok := number(p["calories"]); ok {
		res.Calories = math.Max(v, 0)
	}

	if len(res.FoodItems) == 0 {
		res.FoodItems = FallbackNutrition(description).FoodItems
	}
	if res.Summary == "" {
		res.Summary = synthesizeSummary(res, summaryItems, withNotes)
	}
	if res.AcidityCategory == "" {
		res.AcidityCategory = AcidityCategory(res.AcidityLevel, res.SugarContent)
	}
	if len(res.Recommendations) == 0 {
		res.Recommendations = append([]string(nil), mealRecommendations...)
	}
	return res
}

func synthesizeSummary(res NutritionResult, limit int, withNotes bool) string {
	items := res.FoodItems
	if len(items) > limit {
		items = items[:limit]
	}
	summary := fmt.Sprintf("The meal contains %s.", strings.Join(items, ", "))
	if withNotes {
		if res.SugarContent > 20 {
			summary += " High sugar content."
		}
		if res.AcidityLevel < 5.5 {
			summary += " Acidic food, wait before brushing."
		}
		return summary
	}
	return summary + " A detailed analysis was not possible; try describing the food in more detail."
}

// AcidityCategory labels a meal as acidic (pH < 5.5), sweet (> 20 g sugar) or neutral.
func AcidityCategory(ph, sugar float64) string {
	switch {
	case ph < 5.5:
		return "acidic"
	case sugar > 20:
		return "sweet"
	default:
		return "neutral"
	}
}

var psychologyAnxietyWords = []string{"afraid", "scared", "fear", "anxious", "anxiety", "nervous", "panic", "worried"}
var psychologyPainWords = []string{"pain", "hurt", "painful", "ache"}

// FallbackPsychology picks a canned supportive answer by keyword.
func FallbackPsychology(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, psychologyAnxietyWords):
		return "I understand that you feel anxious about visiting the dentist. That is completely normal! Modern dentistry uses effective anaesthesia, and most procedures are painless."
	case containsAny(msg, psychologyPainWords):
		return "I understand your worry about pain. Modern anaesthetics make treatment practically painless. If you have questions about the procedure, don't hesitate to ask your dentist."
	default:
		return "I'm here to support you. If you have any concerns about dental treatment, I'm ready to help."
	}
}

var bracesEmergencyWords = []string{"came off", "fell off", "broke", "broken", "loose bracket", "snapped"}
var bracesPainWords = []string{"pain", "hurt", "sore", "discomfort", "ache"}
var bracesFoodWords = []string{"eat", "food", "diet", "can i have"}
var bracesCleaningWords = []string{"clean", "brush", "floss", "hygiene", "toothbrush"}

// FallbackBraces picks a canned braces answer by keyword. A detached bracket
// takes precedence over the other topics.
func FallbackBraces(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, bracesEmergencyWords):
		return "If a bracket has come off, contact your orthodontist right away. Don't try to glue it back yourself. Keep the bracket and bring it to your appointment."
	case containsAny(msg, bracesPainWords):
		return "For braces pain try: 1) a painkiller as advised by your doctor, 2) a cold compress on the cheek, 3) soft food. The soreness usually passes within 3-5 days."
	case containsAny(msg, bracesFoodWords):
		return "With braces you can eat soft food: yoghurt, soups, porridge. Avoid hard and sticky food, and cut firm fruit and vegetables into small pieces."
	case containsAny(msg, bracesCleaningWords):
		return "Clean your braces with a soft toothbrush and an interdental brush. Clean each tooth and bracket separately, and use floss or a water flosser."
	default:
		return "I can help with questions about braces. Describe your problem in more detail and I'll give you specific advice."
	}
}

func isRefusal(text string) bool {
	return containsAny(strings.ToLower(text), []string{"can't help", "cannot help", "i'm sorry", "i am sorry", "unable to", "can't assist", "cannot assist"})
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
