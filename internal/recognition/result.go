package recognition

import (
	"time"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/classifier"
)

// FoodItem is a detection enriched with its portion and nutrition
type FoodItem struct {
	classifier.Detection `yaml:",inline"`

	Category           string            `json:"category" yaml:"category"`
	EstimatedGrams     float64           `json:"estimated_grams" yaml:"estimated_grams"`
	PortionExplanation string            `json:"portion_explanation" yaml:"portion_explanation"`
	Nutrition          catalog.Nutrients `json:"nutrition" yaml:"nutrition"`
}

// Result is the nutrition report of one meal photo. It is never modified
// after Recognize returns it.
type Result struct {
	DetectedFoods   []FoodItem        `json:"detected_foods" yaml:"detected_foods"`
	TotalNutrition  catalog.Nutrients `json:"total_nutrition" yaml:"total_nutrition"`
	HealthAlerts    []string          `json:"health_alerts" yaml:"health_alerts"`
	NutritionAdvice []string          `json:"nutrition_advice" yaml:"nutrition_advice"`
	Explanation     string            `json:"explanation" yaml:"explanation"`
	ImageQuality    float64           `json:"image_quality_score" yaml:"image_quality_score"`
	Strategy        string            `json:"classifier" yaml:"classifier"`
	PlateDiameterCm float64           `json:"plate_diameter_cm" yaml:"plate_diameter_cm"`
	ProcessedAt     time.Time         `json:"processed_at" yaml:"processed_at"`
}

// FoodIDs returns the ids of the detected foods in order
func (r *Result) FoodIDs() []string {
	ids := make([]string, len(r.DetectedFoods))
	for i := range r.DetectedFoods {
		ids[i] = r.DetectedFoods[i].FoodID
	}
	return ids
}
