// Package repository persists the artifacts of a run: one CSV file per
// table, an optional workbook with one sheet per table and a run manifest.
package repository

import "github.com/okian/kabaddi/pkg/logger"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithWorkbook also writes every table as a sheet of the .xlsx file at path.
// Relative paths resolve against the output directory.
func WithWorkbook(path string) Option {
	return func(s *FileStore) {
		s.workbookPath = path
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *FileStore) {
		if log != nil {
			s.logger = log
		}
	}
}
