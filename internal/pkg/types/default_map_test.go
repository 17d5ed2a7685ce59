package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMap(t *testing.T) {
	t.Run("get materializes missing entries", func(t *testing.T) {
		m := NewDefaultMap[string](func() []int { return []int{} })

		val := m.Get("missing")

		assert.NotNil(t, val)
		assert.Empty(t, val)
		assert.Contains(t, m.ToMap(), "missing")
	})

	t.Run("set overwrites the default", func(t *testing.T) {
		m := NewDefaultMap[string](func() int { return 0 })

		m.Set("counter", m.Get("counter")+1)
		m.Set("counter", m.Get("counter")+1)

		assert.Equal(t, 2, m.Get("counter"))
	})
}
