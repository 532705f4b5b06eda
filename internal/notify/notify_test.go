package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify_DarwinUsesOsascript(t *testing.T) {
	var out bytes.Buffer
	var ran [][]string
	n := &Notifier{
		Out:  &out,
		goos: "darwin",
		runCommand: func(_ context.Context, name string, args ...string) ([]byte, error) {
			ran = append(ran, append([]string{name}, args...))
			return nil, nil
		},
	}

	n.Notify(context.Background(), "StarHop", "done")

	assert.Len(t, ran, 1)
	assert.Equal(t, "osascript", ran[0][0])
	assert.Empty(t, out.String(), "no text fallback when the notification was delivered")
}

func TestNotify_FallsBackToText(t *testing.T) {
	var out bytes.Buffer
	n := &Notifier{
		Out:  &out,
		goos: "darwin",
		runCommand: func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("headless session")
		},
	}

	n.Notify(context.Background(), "StarHop", "Installation failed: no key")

	assert.Contains(t, out.String(), "StarHop: Installation failed: no key")
}

func TestNotify_NonDarwinIsText(t *testing.T) {
	var out bytes.Buffer
	n := &Notifier{
		Out:  &out,
		goos: "linux",
		runCommand: func(context.Context, string, ...string) ([]byte, error) {
			t.Fatal("no command expected")
			return nil, nil
		},
	}

	n.Notify(context.Background(), "StarHop", "done")

	assert.Equal(t, "StarHop: done\n", out.String())
}
