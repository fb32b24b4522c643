package extraction

import (
	"strings"

	"github.com/satriahrh/voxpense/domain/entities"
)

type categoryRule struct {
	category entities.CategoryTag
	keywords []string
}

// categoryRules is evaluated top to bottom and the first hit wins, so the
// order here decides ties between categories. Keep it stable.
var categoryRules = []categoryRule{
	{entities.CategoryFood, []string{"food", "restaurant", "lunch", "dinner", "breakfast", "coffee", "pizza", "burger", "meal", "eat", "dining"}},
	{entities.CategoryTransportation, []string{"gas", "fuel", "uber", "taxi", "bus", "train", "metro", "parking", "toll", "transport"}},
	{entities.CategoryShopping, []string{"store", "shop", "mall", "amazon", "purchase", "buy", "clothes", "shirt", "pants", "shoes"}},
	{entities.CategoryEntertainment, []string{"movie", "cinema", "theater", "game", "netflix", "spotify", "entertainment", "fun"}},
	{entities.CategoryUtilities, []string{"electric", "water", "gas bill", "internet", "phone", "utility", "bill"}},
	{entities.CategoryHealthcare, []string{"doctor", "hospital", "medicine", "pharmacy", "medical", "health", "clinic"}},
	{entities.CategoryEducation, []string{"school", "book", "course", "education", "learning", "tuition", "student"}},
	{entities.CategoryTravel, []string{"hotel", "flight", "vacation", "trip", "travel", "airbnb", "booking"}},
}

// Classify assigns text to a category by keyword substring match.
func Classify(text string) entities.CategoryTag {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return entities.CategoryOther
}

