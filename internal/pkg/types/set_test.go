package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	t.Run("new set contains its initial elements", func(t *testing.T) {
		set := NewSet("a", "b")

		assert.True(t, set.Contains("a"))
		assert.True(t, set.Contains("b"))
		assert.False(t, set.Contains("c"))
	})

	t.Run("add and delete mutate in place", func(t *testing.T) {
		set := NewSet[string]()

		set.Add("a", "b")
		assert.Len(t, set, 2)

		set.Delete("a")
		assert.False(t, set.Contains("a"))
		assert.True(t, set.Contains("b"))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		set := NewSet(1, 1, 2)

		assert.Len(t, set, 2)
	})

	t.Run("to slice returns every element", func(t *testing.T) {
		set := NewSet("a", "b")

		assert.ElementsMatch(t, []string{"a", "b"}, set.ToSlice())
	})
}
