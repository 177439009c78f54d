package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct{ n int }

func TestRegistry(t *testing.T) {
	r := New()
	key := Key[*counter]("test.counter")

	_, ok := Get(r, key)
	assert.False(t, ok)
	assert.Panics(t, func() { MustGet(r, key) })

	c := &counter{n: 3}
	Set(r, key, c)
	assert.Same(t, c, MustGet(r, key))

	wrong := Key[string]("test.counter")
	_, ok = Get(r, wrong)
	assert.False(t, ok, "a key of another type does not match")
}
