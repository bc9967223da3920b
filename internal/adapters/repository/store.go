package repository

import (
	"context"
	"time"

	"github.com/okian/kabaddi/internal/domain/table"
)

// Artifact describes one written output.
type Artifact struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Rows    int    `yaml:"rows"`
	Columns int    `yaml:"columns"`
}

// Manifest summarizes one run.
type Manifest struct {
	RunID      string     `yaml:"run_id"`
	Command    string     `yaml:"command"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt time.Time  `yaml:"finished_at"`
	Artifacts  []Artifact `yaml:"artifacts"`
	Skipped    []string   `yaml:"skipped_stages,omitempty"`
	Config     any        `yaml:"config,omitempty"`
}

// Store provides write access to the run outputs.
type Store interface {
	// WriteTable writes t to file, relative to the output directory.
	WriteTable(ctx context.Context, t *table.Table, file string) (Artifact, error)

	// WriteManifest writes m as YAML to file, relative to the output directory.
	WriteManifest(ctx context.Context, m Manifest, file string) (Artifact, error)

	// Artifacts returns every table written so far, in write order.
	Artifacts() []Artifact

	// Close flushes pending outputs.
	Close(ctx context.Context) error
}
