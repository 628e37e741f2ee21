package risks

import "github.com/prodentai/companion/internal/models"

// Risk buckets shown to users
const (
	BucketGreen  = "green"
	BucketYellow = "yellow"
	BucketRed    = "red"
)

// Overall levels reported in user statistics
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Short names used in the risk map
var mapKeys = map[string]string{
	models.RiskCavity:        "cavity",
	models.RiskGumDisease:    "gum_disease",
	models.RiskSensitivity:   "sensitivity",
	models.RiskEnamelErosion: "enamel_erosion",
}

// Bucket classifies a score: green below 0.3, yellow below 0.6, red otherwise.
func Bucket(score float64) string {
	switch {
	case score < 0.3:
		return BucketGreen
	case score < 0.6:
		return BucketYellow
	default:
		return BucketRed
	}
}

// RiskMap buckets every dimension, keyed by short name (cavity, gum_disease, ...).
func RiskMap(scores map[string]float64) map[string]string {
	out := make(map[string]string, len(models.RiskKeys))
	for _, key := range models.RiskKeys {
		out[mapKeys[key]] = Bucket(scores[key])
	}
	return out
}

// Average is the mean of the four risk dimensions.
func Average(scores map[string]float64) float64 {
	var sum float64
	for _, key := range models.RiskKeys {
		sum += scores[key]
	}
	return sum / float64(len(models.RiskKeys))
}

// OverallLevel maps the average score to low/medium/high using the bucket thresholds.
func OverallLevel(scores map[string]float64) string {
	switch Bucket(Average(scores)) {
	case BucketGreen:
		return LevelLow
	case BucketYellow:
		return LevelMedium
	default:
		return LevelHigh
	}
}
