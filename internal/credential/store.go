// Package credential acquires, validates, and persists the API key the
// agent needs at every run.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// placeholderKey is the API's shared demo key. It is rate-limited into
// uselessness for a daily agent, so it is rejected like blank input.
const placeholderKey = "DEMO_KEY"

var (
	// ErrAborted means the user canceled the prompt loop.
	ErrAborted = errors.New("credential entry canceled")

	// ErrInvalid means the candidate failed validation against the API, or
	// the validation call itself could not be completed. The candidate is
	// discarded either way.
	ErrInvalid = errors.New("credential validation failed")
)

// Prompter is the opaque user-prompt capability. The terminal implementation
// lives in this package; a GUI wrapper may substitute its own.
type Prompter interface {
	// PromptSecret asks once and returns the entered value. Cancellation is
	// reported as an error wrapping ErrAborted.
	PromptSecret(prompt string) (string, error)
}

// Validator checks a candidate secret against the external service.
type Validator interface {
	Validate(ctx context.Context, secret string) error
}

// Store owns the on-disk credential file.
type Store struct {
	Path      string
	Prompter  Prompter
	Validator Validator
}

// EnsureCredential is idempotent: a persisted credential is reused without
// re-prompting. Otherwise the user is prompted until a non-blank,
// non-placeholder candidate is entered or the prompt is canceled; the
// candidate is then validated once and persisted with owner-only permission.
func (s *Store) EnsureCredential(ctx context.Context) (string, error) {
	if secret, ok := s.load(); ok {
		log.Infof("credential already present (%s), skipping prompt", Mask(secret))
		return secret, nil
	}

	secret, err := s.promptLoop()
	if err != nil {
		return "", err
	}

	if err := s.Validator.Validate(ctx, secret); err != nil {
		log.Errorf("credential %s rejected: %v", Mask(secret), err)
		if errors.Is(err, ErrInvalid) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.persist(secret); err != nil {
		return "", err
	}
	log.Infof("credential %s validated and stored", Mask(secret))
	return secret, nil
}

func (s *Store) load() (string, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false
	}
	secret := strings.TrimSpace(string(data))
	return secret, secret != ""
}

func (s *Store) promptLoop() (string, error) {
	for {
		secret, err := s.Prompter.PromptSecret("Enter your NASA API key: ")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAborted, err)
		}

		secret = strings.TrimSpace(secret)
		switch {
		case secret == "":
			log.Warn("blank credential rejected, prompting again")
		case strings.EqualFold(secret, placeholderKey):
			log.Warnf("placeholder credential %s rejected, prompting again", placeholderKey)
		default:
			return secret, nil
		}
	}
}

func (s *Store) persist(secret string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(secret+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

// Exists probes the credential file without reading it into logs.
func (s *Store) Exists() bool {
	_, ok := s.load()
	return ok
}

// Mask redacts a secret for logging, keeping just enough to recognize it.
func Mask(secret string) string {
	if len(secret) < 8 {
		return "****"
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}
