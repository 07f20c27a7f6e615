package codec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultAmixerTimeout bounds a single amixer invocation.
const DefaultAmixerTimeout = 2 * time.Second

// Amixer sets ALSA mixer controls through the amixer utility.
type Amixer struct {
	Card    string        // ALSA card index or name, e.g. "0"
	Command string        // defaults to "amixer"
	Timeout time.Duration // defaults to DefaultAmixerTimeout
}

// NewAmixer returns a mixer for card.
func NewAmixer(card string) *Amixer {
	return &Amixer{Card: card}
}

func (a *Amixer) args(control, value string) []string {
	args := []string{"-q"}
	if a.Card != "" {
		args = append(args, "-c", a.Card)
	}
	return append(args, "cset", "name="+control, value)
}

// Set runs amixer cset name=<control> <value>.
func (a *Amixer) Set(control, value string) error {
	cmd := a.Command
	if cmd == "" {
		cmd = "amixer"
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAmixerTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, cmd, a.args(control, value)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("codec: amixer %s=%s: %w: %s", control, value, err, strings.TrimSpace(string(out)))
	}
	return nil
}
