package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satriahrh/voxpense/domain/entities"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want entities.CategoryTag
	}{
		{"Lunch at Chipotle $12.50", entities.CategoryFood},
		{"Uber to the airport", entities.CategoryTransportation},
		{"new shoes", entities.CategoryShopping},
		{"Movie tickets 30 dollars", entities.CategoryEntertainment},
		{"internet 60", entities.CategoryUtilities},
		{"PHARMACY run", entities.CategoryHealthcare},
		{"tuition payment", entities.CategoryEducation},
		{"flight to Denver", entities.CategoryTravel},
		{"I went for a walk", entities.CategoryOther},
		{"", entities.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassify_DeclarationOrderBreaksTies(t *testing.T) {
	// food is declared before transportation
	assert.Equal(t, entities.CategoryFood, Classify("uber then pizza"))
	assert.Equal(t, entities.CategoryFood, Classify("pizza then uber"))

	// "gas bill" also contains "gas", and transportation precedes utilities
	assert.Equal(t, entities.CategoryTransportation, Classify("gas bill 80"))

	// shopping precedes entertainment
	assert.Equal(t, entities.CategoryShopping, Classify("bought a game at the mall"))
}

func TestClassify_EveryRuleCategoryIsKnown(t *testing.T) {
	seen := map[entities.CategoryTag]bool{}
	for i, rule := range categoryRules {
		assert.True(t, rule.category.Valid())
		assert.NotEqual(t, entities.CategoryOther, rule.category)
		assert.False(t, seen[rule.category], "duplicate rule for %s", rule.category)
		seen[rule.category] = true
		// rules follow the declaration order of entities.Categories
		assert.Equal(t, entities.Categories[i], rule.category)
	}
}
