package risks

import (
	"testing"

	"github.com/prodentai/companion/internal/models"
)

func TestBucketThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.0, BucketGreen},
		{0.29, BucketGreen},
		{0.2999999, BucketGreen},
		{0.3, BucketYellow},
		{0.45, BucketYellow},
		{0.5999999, BucketYellow},
		{0.6, BucketRed},
		{1.0, BucketRed},
	}
	for _, tt := range tests {
		if got := Bucket(tt.score); got != tt.want {
			t.Errorf("Bucket(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRiskMapAndOverallLevel(t *testing.T) {
	scores := map[string]float64{
		models.RiskCavity:        0.8,
		models.RiskGumDisease:    0.1,
		models.RiskSensitivity:   0.4,
		models.RiskEnamelErosion: 0.6,
	}

	m := RiskMap(scores)
	want := map[string]string{
		"cavity":         BucketRed,
		"gum_disease":    BucketGreen,
		"sensitivity":    BucketYellow,
		"enamel_erosion": BucketRed,
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: expected %s, got %s", k, v, m[k])
		}
	}

	// mean is 0.475
	if got := OverallLevel(scores); got != LevelMedium {
		t.Errorf("expected medium, got %s", got)
	}
	if got := OverallLevel(map[string]float64{}); got != LevelLow {
		t.Errorf("expected low for empty scores, got %s", got)
	}
}
