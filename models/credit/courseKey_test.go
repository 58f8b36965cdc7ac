package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCourseKey(t *testing.T) {
	key, err := ParseCourseKey("HogwartsX/Potions101/2026")
	require.NoError(t, err)
	assert.Equal(t, "HogwartsX", key.Org)
	assert.Equal(t, "Potions101", key.Number)
	assert.Equal(t, "2026", key.Run)
	assert.Equal(t, "HogwartsX/Potions101/2026", key.String())
}

func TestParseCourseKeyInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"HogwartsX",
		"HogwartsX/Potions101",
		"HogwartsX/Potions101/2026/extra",
		"HogwartsX//2026",
		"/Potions101/2026",
		"HogwartsX/Potions101/",
	} {
		_, err := ParseCourseKey(raw)
		assert.Error(t, err, raw)
	}
}
