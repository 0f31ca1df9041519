package classifier

import (
	"strings"
)

// BuildPrompt returns the instruction sent with every photo. It lists the
// known food ids and asks for a bare JSON array of detections.
func BuildPrompt(foodIDs []string) string {
	var b strings.Builder
	b.WriteString("Analyze this food image and identify the Indian food items present.\n\n")
	b.WriteString("Known foods (use these ids):\n")
	b.WriteString(strings.Join(foodIDs, ", "))
	b.WriteString("\n\nFor every food item visible in the image report:\n")
	b.WriteString("- food_id: the id from the list above\n")
	b.WriteString("- confidence: a number between 0.0 and 1.0\n")
	b.WriteString("- description: a short description of what you see\n\n")
	b.WriteString("Respond with a JSON array only, for example:\n")
	b.WriteString(`[{"food_id": "biryani", "confidence": 0.95, "description": "chicken biryani"},`)
	b.WriteString("\n")
	b.WriteString(` {"food_id": "raita", "confidence": 0.88, "description": "cucumber raita on the side"}]`)
	b.WriteString("\n\nIf a food is not in the list use the closest id, or a generic one such as rice, curry or dal.")
	return b.String()
}
