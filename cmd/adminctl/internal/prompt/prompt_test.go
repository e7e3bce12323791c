package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	secret, err := ReadSecret(strings.NewReader("s3cret\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	secret, err = ReadSecret(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", secret)

	_, err = ReadSecret(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNonInteractiveRefusesPrompts(t *testing.T) {
	_, err := Text(true, "Username")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = Password(true, "Password")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = Confirm(true, false, "Delete?")
	assert.ErrorIs(t, err, ErrNonInteractive)

	ok, err := Confirm(true, true, "Delete?")
	require.NoError(t, err)
	assert.True(t, ok)
}
