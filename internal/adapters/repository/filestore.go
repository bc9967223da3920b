package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
)

const (
	maxSheetName = 31
	defaultSheet = "Sheet1"
)

// FileStore writes outputs under one directory.
type FileStore struct {
	dir          string
	workbookPath string
	workbook     *excelize.File
	sheets       map[string]bool
	artifacts    []Artifact
	closed       bool
	logger       logger.Logger
}

// NewFileStore creates dir when needed and returns a store writing into it.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		dir:    dir,
		sheets: make(map[string]bool),
		logger: logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if s.workbookPath != "" {
		if !filepath.IsAbs(s.workbookPath) {
			s.workbookPath = filepath.Join(dir, s.workbookPath)
		}
		s.workbook = excelize.NewFile()
	}
	return s, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

// WriteTable writes t as CSV and, when a workbook is configured, as a sheet.
func (s *FileStore) WriteTable(ctx context.Context, t *table.Table, file string) (Artifact, error) {
	if s.closed {
		return Artifact{}, ErrClosed
	}
	path := filepath.Join(s.dir, file)
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	a := Artifact{Name: strings.TrimSuffix(file, filepath.Ext(file)), Path: path, Rows: t.Len(), Columns: len(t.Columns)}
	if s.workbook != nil {
		if err := s.addSheet(a.Name, t); err != nil {
			return Artifact{}, fmt.Errorf("%w: sheet %s: %v", ErrWrite, a.Name, err)
		}
	}
	s.artifacts = append(s.artifacts, a)
	s.logger.Info(ctx, "table written",
		logger.String("path", path),
		logger.Int("rows", a.Rows),
		logger.Int("columns", a.Columns))
	return a, nil
}

func (s *FileStore) addSheet(name string, t *table.Table) error {
	sheet := s.sheetName(name)
	if _, err := s.workbook.NewSheet(sheet); err != nil {
		return err
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := s.workbook.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			if f, ok := model.ToFloat(v); ok {
				cells[i] = f
			} else {
				cells[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := s.workbook.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return nil
}

// sheetName shortens name to the sheet limit and keeps it unique.
func (s *FileStore) sheetName(name string) string {
	base := name
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	sheet := base
	for i := 2; s.sheets[sheet] || sheet == defaultSheet; i++ {
		suffix := fmt.Sprintf("_%d", i)
		sheet = base
		if len(sheet)+len(suffix) > maxSheetName {
			sheet = sheet[:maxSheetName-len(suffix)]
		}
		sheet += suffix
	}
	s.sheets[sheet] = true
	return sheet
}

// WriteManifest writes m as YAML.
func (s *FileStore) WriteManifest(ctx context.Context, m Manifest, file string) (Artifact, error) {
	path := filepath.Join(s.dir, file)
	body, err := yaml.Marshal(m)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	s.logger.Info(ctx, "manifest written", logger.String("path", path), logger.String("run_id", m.RunID))
	return Artifact{Name: strings.TrimSuffix(file, filepath.Ext(file)), Path: path}, nil
}

// Artifacts returns a copy of the written table artifacts.
func (s *FileStore) Artifacts() []Artifact {
	return append([]Artifact(nil), s.artifacts...)
}

// Close saves the workbook, if any. Further writes fail with ErrClosed.
func (s *FileStore) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.workbook == nil {
		return nil
	}
	defer func() {
		if err := s.workbook.Close(); err != nil {
			s.logger.Warn(ctx, "failed to close workbook", logger.Error(err))
		}
	}()
	if len(s.sheets) == 0 {
		s.logger.Warn(ctx, "no tables written; workbook not saved", logger.String("path", s.workbookPath))
		return nil
	}
	if err := s.workbook.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, s.workbookPath, err)
	}
	if err := s.workbook.SaveAs(s.workbookPath); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, s.workbookPath, err)
	}
	s.logger.Info(ctx, "workbook written", logger.String("path", s.workbookPath), logger.Int("sheets", len(s.sheets)))
	return nil
}

var _ Store = (*FileStore)(nil)
