// Package prompt wraps the interactive pterm inputs used by adminctl commands.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// ErrNonInteractive is returned when input is required but prompts are disabled.
var ErrNonInteractive = errors.New("input required but prompts are disabled (--non-interactive)")

// Text asks for a line of input.
func Text(nonInteractive bool, label string) (string, error) {
	if nonInteractive {
		return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
	}
	value, err := pterm.DefaultInteractiveTextInput.Show(label)
	if err != nil {
		return "", fmt.Errorf("failed to show interactive prompt: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Password asks for a secret without echoing it.
func Password(nonInteractive bool, label string) (string, error) {
	if nonInteractive {
		return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
	}
	value, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show(label)
	if err != nil {
		return "", fmt.Errorf("failed to show interactive prompt: %w", err)
	}
	return value, nil
}

// Confirm asks a yes/no question. Without prompts the answer is assumeYes.
func Confirm(nonInteractive, assumeYes bool, question string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if nonInteractive {
		return false, fmt.Errorf("%s: %w (pass --yes)", question, ErrNonInteractive)
	}
	ok, err := pterm.DefaultInteractiveConfirm.Show(question)
	if err != nil {
		return false, fmt.Errorf("failed to show interactive prompt: %w", err)
	}
	return ok, nil
}

// ReadSecret reads the first line of r, as used by --password-stdin.
func ReadSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("empty secret on stdin")
	}
	return secret, nil
}
