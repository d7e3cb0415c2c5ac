package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoriesStableAndKnown(t *testing.T) {
	cats := Categories()
	assert.NotEmpty(t, cats)
	assert.Equal(t, cats, Categories(), "order must be stable across calls")
	for _, c := range cats {
		assert.True(t, IsCategory(c), c)
		assert.NotEmpty(t, SubCategories(c), c)
	}
}

func TestIsCategory_ExactMatchOnly(t *testing.T) {
	assert.True(t, IsCategory("🛒 Electronics"))
	assert.False(t, IsCategory("Electronics"))
	assert.False(t, IsCategory("electronics"))
}

func TestIsSubCategory(t *testing.T) {
	assert.True(t, IsSubCategory("🛒 Electronics", "📱 Phones"))
	assert.False(t, IsSubCategory("🛒 Electronics", "Phones"))
	// Valid sub-category, wrong parent.
	assert.False(t, IsSubCategory("🛒 Electronics", "👟 Shoes"))
	assert.False(t, IsSubCategory("No such category", "📱 Phones"))
}

func TestHashtag(t *testing.T) {
	assert.Equal(t, "Phones", Hashtag("📱 Phones"))
	assert.Equal(t, "Phones", Hashtag("Phones"))
	assert.Equal(t, "", Hashtag("  "))
}

func TestCategoryWord(t *testing.T) {
	assert.Equal(t, "Electronics", CategoryWord("🛒 Electronics"))
	assert.Equal(t, "Other", CategoryWord("📚 Other"))
	assert.Equal(t, "Plain", CategoryWord("Plain"))
	assert.Equal(t, "", CategoryWord(""))
}
