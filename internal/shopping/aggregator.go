package shopping

import (
	"log"

	"mealshare_echo/internal/models"
)

// Placeholder strings left behind by clients that stringified missing values.
var missingSentinels = map[string]bool{
	"undefined":       true,
	"null":            true,
	"[object Object]": true,
}

// RawMentions flattens the ingredient mentions of meals, in meal order then
// mention order. Each line is normalized the way mention keys are, so the
// text shown is the key a toggle stores. Group labels are dropped and each group item is emitted on
// its own. Malformed entries are logged and skipped.
func RawMentions(meals []models.Meal) []string {
	var out []string
	for _, meal := range meals {
		mentions, errs := meal.Mentions()
		for _, err := range errs {
			log.Printf("[shopping] plan %d meal %d: skipping ingredient: %v", meal.PlanID, meal.ID, err)
		}
		for _, m := range mentions {
			for _, text := range m.Texts() {
				text = models.MentionKey(text)
				if text == "" || missingSentinels[text] {
					continue
				}
				out = append(out, text)
			}
		}
	}
	return out
}

// Aggregate builds the categorized shopping list for meals. No deduplication
// or quantity merging happens: the same text from two meals yields two lines.
// Empty categories are omitted.
func Aggregate(meals []models.Meal) models.ShoppingList {
	buckets := make(map[string][]string)
	for _, text := range RawMentions(meals) {
		label := Classify(text)
		buckets[label] = append(buckets[label], text)
	}

	var list models.ShoppingList
	for _, label := range Categories() {
		if items := buckets[label]; len(items) > 0 {
			list = append(list, models.ShoppingCategory{Label: label, Items: items})
		}
	}
	return list
}
