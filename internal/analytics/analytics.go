// Package analytics derives nutrition trends and goal progress from a
// user's logged meals.
package analytics

import (
	"context"
	"slices"
	"time"

	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

// Defaults for the query windows
const (
	DefaultWeeks         = 1
	DefaultMacroDays     = 7
	DefaultFrequencyDays = 30
	MaxFrequencyFoods    = 20

	// MaxWeeks and MaxDays bound the query windows
	MaxWeeks = 52
	MaxDays  = 366
)

// Macro target shares in percent
const (
	TargetProteinPercent = 25
	TargetCarbsPercent   = 50
	TargetFatPercent     = 25
)

// Messages returned when there is nothing to analyse
const (
	MsgNoMealData       = "No meal data found"
	MsgNoMealsInPeriod  = "No meal data in the specified period"
	MsgMacroBalanceGood = "Your macro balance looks good! Keep it up! 👍"
)

// Store is the subset of the datastore analytics reads from
type Store interface {
	GetUser(ctx context.Context, id string) (*datastore.User, error)
	HasMeals(ctx context.Context, userID string) (bool, error)
	MealsBetween(ctx context.Context, userID string, from, to time.Time) ([]datastore.Meal, error)
}

// Service answers analytics queries against a Store. Calendar days are UTC.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for "today"
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an analytics service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return startOfDay(s.now())
}

// checkWindow rejects windows longer than limit
func checkWindow(name string, value, limit int) error {
	if value <= limit {
		return nil
	}
	return errors.Newf("%s must be at most %d, got %d", name, limit, value).
		Component("analytics").
		Category(errors.CategoryValidation).
		Context(name, value).
		Build()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mealsInRange returns meals from the start of from through the end of to
func (s *Service) mealsInRange(ctx context.Context, userID string, from, to time.Time) ([]datastore.Meal, error) {
	return s.store.MealsBetween(ctx, userID, from, to.AddDate(0, 0, 1))
}

// Macros are nutrient amounts in grams
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// DayTotals is the nutrition total of one calendar day
type DayTotals struct {
	Date     string  `json:"date"`
	DayName  string  `json:"day_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int     `json:"meals"`
}

// Averages are per-day means over the days with data
type Averages struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// WeeklySummary is the per-day breakdown of a range of weeks
type WeeklySummary struct {
	UserID         string      `json:"user_id"`
	Message        string      `json:"message,omitempty"`
	Period         string      `json:"period"`
	TotalDays      int         `json:"total_days"`
	DaysWithData   int         `json:"days_with_data"`
	Averages       Averages    `json:"averages"`
	DailyBreakdown []DayTotals `json:"daily_breakdown"`
}

// WeeklySummary covers today and the weeks*7 days before it
func (s *Service) WeeklySummary(ctx context.Context, userID string, weeks int) (*WeeklySummary, error) {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if err := checkWindow("weeks", weeks, MaxWeeks); err != nil {
		return nil, err
	}

	end := s.today()
	start := end.AddDate(0, 0, -weeks*7)

	has, err := s.store.HasMeals(ctx, userID)
	if err != nil {
		return nil, err
	}

	var meals []datastore.Meal
	if has {
		if meals, err = s.mealsInRange(ctx, userID, start, end); err != nil {
			return nil, err
		}
	}

	summary := Weekly(meals, start, end)
	summary.UserID = userID
	if !has {
		summary.Message = MsgNoMealData
	}
	return summary, nil
}

// Weekly buckets meals into the calendar days from start to end inclusive
func Weekly(meals []datastore.Meal, start, end time.Time) *WeeklySummary {
	start, end = startOfDay(start), startOfDay(end)

	byDate := make(map[string]*DayTotals)
	var days []DayTotals
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DayTotals{Date: d.Format(time.DateOnly), DayName: d.Weekday().String()})
	}
	for i := range days {
		byDate[days[i].Date] = &days[i]
	}

	for i := range meals {
		day, ok := byDate[meals[i].Timestamp.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		n := meals[i].TotalNutrition
		day.Calories += n.Calories
		day.Protein += n.Protein
		day.Carbs += n.Carbs
		day.Fat += n.Fat
		day.Meals++
	}

	summary := &WeeklySummary{
		Period:         start.Format(time.DateOnly) + " to " + end.Format(time.DateOnly),
		TotalDays:      len(days),
		DailyBreakdown: days,
	}

	var sum Averages
	for i := range days {
		if days[i].Meals > 0 {
			summary.DaysWithData++
		}
		sum.Calories += days[i].Calories
		sum.Protein += days[i].Protein
		sum.Carbs += days[i].Carbs
		sum.Fat += days[i].Fat
	}
	if summary.DaysWithData > 0 {
		n := float64(summary.DaysWithData)
		summary.Averages = Averages{
			Calories: nutrition.Round1(sum.Calories / n),
			Protein:  nutrition.Round1(sum.Protein / n),
			Carbs:    nutrition.Round1(sum.Carbs / n),
			Fat:      nutrition.Round1(sum.Fat / n),
		}
	}
	return summary
}

// MacroTargets are the recommended macro shares in percent
type MacroTargets struct {
	ProteinPercent int `json:"target_protein_percent"`
	CarbsPercent   int `json:"target_carbs_percent"`
	FatPercent     int `json:"target_fat_percent"`
}

// MacroDistribution is the calorie share of each macronutrient
type MacroDistribution struct {
	UserID          string        `json:"user_id"`
	Message         string        `json:"message,omitempty"`
	PeriodDays      int           `json:"period_days"`
	TotalGrams      Macros        `json:"total_macros_grams"`
	Distribution    Macros        `json:"distribution_percent"`
	Targets         *MacroTargets `json:"targets,omitempty"`
	Recommendations []string      `json:"recommendations"`
}

// MacroDistribution analyses the last days days. A user without any
// logged meal yields a not-found error.
func (s *Service) MacroDistribution(ctx context.Context, userID string, days int) (*MacroDistribution, error) {
	if days <= 0 {
		days = DefaultMacroDays
	}
	if err := checkWindow("days", days, MaxDays); err != nil {
		return nil, err
	}

	has, err := s.store.HasMeals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, errors.Newf("No data found for user").
			Component("analytics").
			Category(errors.CategoryNotFound).
			Priority(errors.PriorityLow).
			Context("user_id", userID).
			Build()
	}

	end := s.today()
	meals, err := s.mealsInRange(ctx, userID, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}

	dist := Distribution(meals)
	dist.UserID = userID
	dist.PeriodDays = days

	if dist.Message == "" {
		if _, err := s.store.GetUser(ctx, userID); err == nil {
			dist.Targets = &MacroTargets{
				ProteinPercent: TargetProteinPercent,
				CarbsPercent:   TargetCarbsPercent,
				FatPercent:     TargetFatPercent,
			}
		} else if !errors.IsNotFound(err) {
			GetLogger().Warn("user lookup failed for macro targets",
				logger.String("user_id", userID),
				logger.Error(err))
		}
	}
	return dist, nil
}

// Distribution computes macro calorie shares (4/4/9 kcal per gram)
func Distribution(meals []datastore.Meal) *MacroDistribution {
	var grams Macros
	var calories float64
	for i := range meals {
		n := meals[i].TotalNutrition
		grams.Protein += n.Protein
		grams.Carbs += n.Carbs
		grams.Fat += n.Fat
		calories += n.Calories
	}

	if calories == 0 {
		return &MacroDistribution{Message: MsgNoMealsInPeriod, Recommendations: []string{}}
	}

	proteinCal := grams.Protein * 4
	carbsCal := grams.Carbs * 4
	fatCal := grams.Fat * 9
	macroCal := proteinCal + carbsCal + fatCal

	var pct Macros
	if macroCal > 0 {
		pct = Macros{
			Protein: proteinCal / macroCal * 100,
			Carbs:   carbsCal / macroCal * 100,
			Fat:     fatCal / macroCal * 100,
		}
	}

	return &MacroDistribution{
		TotalGrams: Macros{
			Protein: nutrition.Round1(grams.Protein),
			Carbs:   nutrition.Round1(grams.Carbs),
			Fat:     nutrition.Round1(grams.Fat),
		},
		Distribution: Macros{
			Protein: nutrition.Round1(pct.Protein),
			Carbs:   nutrition.Round1(pct.Carbs),
			Fat:     nutrition.Round1(pct.Fat),
		},
		Recommendations: MacroRecommendations(pct),
	}
}

// MacroRecommendations returns advice for unbalanced macro shares
func MacroRecommendations(pct Macros) []string {
	var recs []string

	switch {
	case pct.Protein < 20:
		recs = append(recs, "Increase protein intake with dal, paneer, eggs, or lean meats")
	case pct.Protein > 35:
		recs = append(recs, "Consider balancing protein with more complex carbs")
	}

	switch {
	case pct.Carbs < 40:
		recs = append(recs, "Add more whole grains, rice, or chapati for energy")
	case pct.Carbs > 60:
		recs = append(recs, "Reduce simple carbs and increase protein/healthy fats")
	}

	switch {
	case pct.Fat < 15:
		recs = append(recs, "Include healthy fats from nuts, seeds, or ghee")
	case pct.Fat > 35:
		recs = append(recs, "Reduce fried foods and use healthier cooking methods")
	}

	if len(recs) == 0 {
		recs = append(recs, MsgMacroBalanceGood)
	}
	return recs
}

// Progress statuses
const (
	StatusUnderTarget      = "Under target"
	StatusOnTarget         = "On target"
	StatusOverTarget       = "Over target"
	StatusNeedsImprovement = "Needs improvement"
	StatusGood             = "Good"
	StatusExcellent        = "Excellent"
)

// Progress is today's intake of one nutrient against its target
type Progress struct {
	Consumed  float64 `json:"consumed"`
	Target    int     `json:"target"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
}

// GoalProgress tracks today's intake against the user's daily targets
type GoalProgress struct {
	UserID          string   `json:"user_id"`
	HealthGoal      string   `json:"health_goal"`
	Date            string   `json:"date"`
	CalorieProgress Progress `json:"calorie_progress"`
	ProteinProgress Progress `json:"protein_progress"`
	BMI             float64  `json:"bmi"`
}

// GoalProgress reports today's calorie and protein progress of a user
func (s *Service) GoalProgress(ctx context.Context, userID string) (*GoalProgress, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	meals, err := s.mealsInRange(ctx, userID, today, today)
	if err != nil {
		return nil, err
	}

	var calories, protein float64
	for i := range meals {
		calories += meals[i].TotalNutrition.Calories
		protein += meals[i].TotalNutrition.Protein
	}

	body := user.Body()
	calorieProgress := progress(calories, body.DailyCalorieTarget())
	calorieProgress.Status = calorieStatus(calorieProgress.Percent)
	proteinProgress := progress(protein, body.DailyProteinTarget())
	proteinProgress.Status = proteinStatus(proteinProgress.Percent)

	return &GoalProgress{
		UserID:          userID,
		HealthGoal:      user.HealthGoal,
		Date:            today.Format(time.DateOnly),
		CalorieProgress: calorieProgress,
		ProteinProgress: proteinProgress,
		BMI:             body.BMI(),
	}, nil
}

func progress(consumed float64, target int) Progress {
	var pct float64
	if target > 0 {
		pct = consumed / float64(target) * 100
	}
	return Progress{
		Consumed:  nutrition.Round1(consumed),
		Target:    target,
		Remaining: nutrition.Round1(max(0, float64(target)-consumed)),
		Percent:   nutrition.Round1(pct),
	}
}

func calorieStatus(pct float64) string {
	switch {
	case pct < 80:
		return StatusUnderTarget
	case pct <= 110:
		return StatusOnTarget
	default:
		return StatusOverTarget
	}
}

func proteinStatus(pct float64) string {
	switch {
	case pct < 80:
		return StatusNeedsImprovement
	case pct <= 120:
		return StatusGood
	default:
		return StatusExcellent
	}
}

// FoodCount is how often one food was eaten in a period
type FoodCount struct {
	FoodID        string  `json:"food_id"`
	FoodName      string  `json:"food_name"`
	TimesConsumed int     `json:"times_consumed"`
	TotalGrams    float64 `json:"total_grams"`
	AvgPortionG   float64 `json:"avg_portion_g"`
}

// FoodFrequency ranks the foods a user ate most often
type FoodFrequency struct {
	UserID      string      `json:"user_id"`
	Message     string      `json:"message,omitempty"`
	PeriodDays  int         `json:"period_days"`
	UniqueFoods int         `json:"unique_foods"`
	Foods       []FoodCount `json:"food_frequency"`
}

// FoodFrequency ranks foods eaten over the last days days
func (s *Service) FoodFrequency(ctx context.Context, userID string, days int) (*FoodFrequency, error) {
	if days <= 0 {
		days = DefaultFrequencyDays
	}
	if err := checkWindow("days", days, MaxDays); err != nil {
		return nil, err
	}

	freq := &FoodFrequency{UserID: userID, PeriodDays: days, Foods: []FoodCount{}}

	has, err := s.store.HasMeals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !has {
		freq.Message = MsgNoMealData
		return freq, nil
	}

	end := s.today()
	meals, err := s.mealsInRange(ctx, userID, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}

	foods := Frequency(meals)
	freq.UniqueFoods = len(foods)
	if len(foods) > MaxFrequencyFoods {
		foods = foods[:MaxFrequencyFoods]
	}
	freq.Foods = foods
	return freq, nil
}

// Frequency counts foods across meals, most frequent first. Ties keep the
// order in which foods were first seen.
func Frequency(meals []datastore.Meal) []FoodCount {
	index := make(map[string]int)
	counts := []FoodCount{}

	for i := range meals {
		for _, food := range meals[i].DetectedFoods {
			pos, ok := index[food.FoodID]
			if !ok {
				pos = len(counts)
				index[food.FoodID] = pos
				counts = append(counts, FoodCount{FoodID: food.FoodID})
			}
			c := &counts[pos]
			c.FoodName = food.Name
			c.TimesConsumed++
			c.TotalGrams += food.EstimatedGrams
		}
	}

	for i := range counts {
		c := &counts[i]
		c.AvgPortionG = nutrition.Round1(c.TotalGrams / float64(c.TimesConsumed))
		c.TotalGrams = nutrition.Round1(c.TotalGrams)
	}

	slices.SortStableFunc(counts, func(a, b FoodCount) int {
		return b.TimesConsumed - a.TimesConsumed
	})
	return counts
}
