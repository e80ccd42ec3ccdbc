package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), parsed)

	for _, invalid := range []string{"", "2024-3-5", "05-03-2024", "2024-02-30", "2024-13-01", "2024-03-05T00:00:00Z", "hello"} {
		_, err := ParseDate(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-03-05", FormatDate(time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)))
}
