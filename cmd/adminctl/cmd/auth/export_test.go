package auth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExport(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "posix", want: "export ADMINCTL_TOKEN=\"abc.def\"\n"},
		{format: "zsh", want: "export ADMINCTL_TOKEN=\"abc.def\"\n"},
		{format: "fish", want: "set -x ADMINCTL_TOKEN \"abc.def\"\n"},
		{format: "pwsh", want: "$env:ADMINCTL_TOKEN=\"abc.def\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeExport(&buf, false, tt.format, "abc.def"))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteExportUnsupportedShell(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeExport(&buf, false, "tcsh", "tok"))
	assert.Empty(t, buf.String())
}

func TestDetectShell(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/fish")
	assert.Equal(t, "fish", detectShell())

	t.Setenv("SHELL", "/usr/local/bin/pwsh")
	assert.Equal(t, "powershell", detectShell())

	t.Setenv("SHELL", "/bin/bash")
	assert.Equal(t, "posix", detectShell())

	t.Setenv("SHELL", "")
	assert.Equal(t, "posix", detectShell())
}
