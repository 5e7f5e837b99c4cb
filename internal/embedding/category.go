package embedding

import "strings"

// CategoryRule maps a URL path fragment to a category label.
type CategoryRule struct {
	Match    string
	Category string
}

// DefaultCategory is assigned when no rule matches.
const DefaultCategory = "other"

// categoryRules is an ordered table evaluated first-match-wins. Order is part
// of the contract; do not convert this to a map.
var categoryRules = []CategoryRule{
	{Match: "sjukdomar--besvar", Category: "diseases_conditions"},
	{Match: "barn--gravid", Category: "children_pregnancy"},
	{Match: "liv--halsa", Category: "lifestyle_health"},
	{Match: "hitta-vard", Category: "finding_care"},
}

// Categorize derives a category from a source URL. It is a pure function:
// the same URL always yields the same category.
func Categorize(url string) string {
	for _, rule := range categoryRules {
		if strings.Contains(url, rule.Match) {
			return rule.Category
		}
	}
	return DefaultCategory
}
