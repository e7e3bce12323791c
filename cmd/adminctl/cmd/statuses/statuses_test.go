package statuses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescription(t *testing.T) {
	d, err := description("  Active ")
	require.NoError(t, err)
	assert.Equal(t, "Active", d)

	_, err = description("   ")
	assert.Error(t, err)
}
