package category

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("  Food & Drink ")
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink", c.Name())

	_, err = NewCategory("")
	assert.Error(t, err)

	_, err = NewCategory(strings.Repeat("x", 101))
	assert.Error(t, err)
}

func TestCategory_Rename(t *testing.T) {
	c, err := NewCategory("Walking")
	require.NoError(t, err)

	require.NoError(t, c.Rename("Hiking"))
	assert.Equal(t, "Hiking", c.Name())

	assert.Error(t, c.Rename(" "))
	assert.Equal(t, "Hiking", c.Name())
}
