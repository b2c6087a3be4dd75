package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDefaultsToGeneric(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("boom")).Build()

	assert.Equal(t, "boom", ee.Error())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
}

func TestBuildHonorsExplicitComponentAndCategory(t *testing.T) {
	t.Parallel()

	ee := Newf("decode failed for %s", "clip.wav").
		Component("dsp.decode").
		Category(CategoryDecode).
		Context("path", "clip.wav").
		Build()

	assert.Equal(t, "dsp.decode", ee.GetComponent())
	assert.Equal(t, CategoryDecode, ee.Category)
	assert.Equal(t, "clip.wav", ee.GetContext()["path"])
}

func TestContextCopyIsIndependent(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("x")).Context("k", 1).Build()
	ctx := ee.GetContext()
	ctx["k"] = 2

	assert.Equal(t, 1, ee.GetContext()["k"], "mutating the returned map must not affect the error")
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := New(fmt.Errorf("nope")).Category(CategoryNotFound).Build()
	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.False(t, IsCategory(err, CategoryDecode))
}

func TestUnwrapAndIs(t *testing.T) {
	t.Parallel()

	sentinel := fmt.Errorf("sentinel")
	wrapped := Wrap(sentinel).Build()

	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, sentinel, Unwrap(wrapped))
}
