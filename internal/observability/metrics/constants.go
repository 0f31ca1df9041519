package metrics

// Operation names recorded by the datastore
const (
	OpUserCreate   = "user_create"
	OpUserGet      = "user_get"
	OpUserUpdate   = "user_update"
	OpUserDelete   = "user_delete"
	OpUserList     = "user_list"
	OpMealCreate   = "meal_create"
	OpMealGet      = "meal_get"
	OpMealDelete   = "meal_delete"
	OpMealRange    = "meal_range"
	OpMealHistory  = "meal_history"
	OpDailySummary = "daily_summary"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
