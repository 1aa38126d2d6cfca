package budget

import (
	"strings"
)

// FallbackCategory receives statement entries no rule matches.
const FallbackCategory = "Other"

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules maps description keywords to the default budget
// categories. Rules are checked in order so an ambiguous description
// always resolves the same way. Matching is case-insensitive substring
// search.
var categoryRules = []categoryRule{
	{"Food", []string{"zomato", "swiggy", "dominos", "restaurant", "cafe", "grocery", "bigbasket", "blinkit", "zepto"}},
	{"Shopping", []string{"amazon", "flipkart", "myntra", "ajio", "croma", "mall"}},
	{"Travel", []string{"uber", "ola", "rapido", "irctc", "makemytrip", "redbus", "indigo", "petrol", "fuel"}},
}

// Categorize assigns a budget category to a free-text transaction
// description. Unmatched descriptions fall back to FallbackCategory.
func Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(desc, keyword) {
				return rule.category
			}
		}
	}
	return FallbackCategory
}
