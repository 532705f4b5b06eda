package install

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/starhop/starhop/internal/config"
)

// Record is the on-disk truth of the installation. Individual artifacts may
// exist without it (partial installs are expected); it aggregates their
// locations once an install run reaches registration.
type Record struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	InstallRoot    string    `json:"install_root"`
	RuntimeEnv     string    `json:"runtime_env"`
	CredentialFile string    `json:"credential_file"`
	Descriptor     string    `json:"descriptor"`
	LogDir         string    `json:"log_dir"`
	Payload        string    `json:"payload"`
}

// LoadRecord reads an existing record; a missing file is (nil, nil).
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read installation record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse installation record: %w", err)
	}
	return &rec, nil
}

// NewRecord builds a record for cfg, preserving the identity of a previous
// record when one exists.
func NewRecord(cfg *config.Config, prev *Record) *Record {
	rec := &Record{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		InstallRoot:    cfg.InstallRoot,
		RuntimeEnv:     cfg.VenvPath(),
		CredentialFile: cfg.CredentialPath(),
		Descriptor:     cfg.DescriptorPath(),
		LogDir:         cfg.LogDir(),
		Payload:        cfg.PayloadPath(),
	}
	if prev != nil && prev.ID != "" {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	}
	return rec
}

// Save writes the record atomically enough for a single-user installer:
// last writer wins, concurrent installs are not a supported scenario.
func (r *Record) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode installation record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write installation record: %w", err)
	}
	return nil
}
