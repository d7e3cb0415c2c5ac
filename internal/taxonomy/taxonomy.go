// Package taxonomy holds the static category tree products are filed under.
// Labels carry an emoji prefix so they render nicely as reply keyboard
// buttons; the word part of a label is what ends up in captions.
package taxonomy

import (
	"sort"
	"strings"
)

// categories maps a general category label to its sub-category labels.
// Matching is exact on the full label, emoji included.
var categories = map[string][]string{
	"🛒 Electronics": {
		"📱 Phones",
		"💻 Laptops",
		"🖥 Computers",
		"🎧 Audio",
		"📺 TVs",
		"📷 Cameras",
	},
	"👗 Fashion": {
		"👔 Menswear",
		"👗 Womenswear",
		"👟 Shoes",
		"👜 Bags",
		"⌚ Watches",
	},
	"🏠 Home": {
		"🛋 Furniture",
		"🍳 Kitchenware",
		"🛏 Bedding",
		"💡 Appliances",
	},
	"🚗 Vehicles": {
		"🚗 Cars",
		"🏍 Motorbikes",
		"🚲 Bicycles",
		"🔧 Spares",
	},
	"📚 Other": {
		"📚 Books",
		"🧸 Toys",
		"🏋️ Sports",
		"🎸 Instruments",
	},
}

// Categories returns all general category labels in a stable order.
func Categories() []string {
	out := make([]string, 0, len(categories))
	for c := range categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SubCategories returns the sub-category labels for a general category, or
// nil if the category does not exist.
func SubCategories(category string) []string {
	return categories[category]
}

// IsCategory reports whether label is an exact general category.
func IsCategory(label string) bool {
	_, ok := categories[label]
	return ok
}

// IsSubCategory reports whether label is an exact sub-category of category.
func IsSubCategory(category, label string) bool {
	for _, s := range categories[category] {
		if s == label {
			return true
		}
	}
	return false
}

// Hashtag derives the stored specific-category tag from a sub-category
// label: its last whitespace-delimited token ("📱 Phones" -> "Phones").
func Hashtag(subCategory string) string {
	fields := strings.Fields(subCategory)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// CategoryWord returns the word part of a general category label, used for
// the caption hashtag line ("🛒 Electronics" -> "Electronics"). Labels
// without an emoji prefix are returned as-is.
func CategoryWord(category string) string {
	fields := strings.Fields(category)
	if len(fields) >= 2 {
		return fields[1]
	}
	if len(fields) == 1 {
		return fields[0]
	}
	return ""
}
