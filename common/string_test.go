package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^order_\d{13}_[a-z0-9]{9}$`)

	id := NewOrderID()
	assert.Regexp(t, pattern, id)

	// Two ids from the same millisecond must still differ
	other := NewOrderID()
	assert.NotEqual(t, id, other)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "iron-fitness", Slugify("Iron Fitness"))
	assert.Equal(t, "golds-gym", Slugify("  Gold's  Gym "))
	assert.Equal(t, "flex-247", Slugify("Flex 24/7!"))
	assert.Equal(t, "gym", Slugify("---gym---"))
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("iron-fitness"))
	assert.True(t, ValidSlug("gym42"))
	assert.True(t, ValidSlug("abc"))

	assert.False(t, ValidSlug("ab"), "too short")
	assert.False(t, ValidSlug("-gym"), "leading hyphen")
	assert.False(t, ValidSlug("gym-"), "trailing hyphen")
	assert.False(t, ValidSlug("Iron-Fitness"), "uppercase")
	assert.False(t, ValidSlug("iron_fitness"), "underscore")
	assert.False(t, ValidSlug(""), "empty")
}

func TestValidSlugRejectsReservedRoutes(t *testing.T) {
	for _, reserved := range ReservedSlugs {
		assert.False(t, ValidSlug(reserved), reserved)
	}
}
