// Package service runs the kabaddi statistics pipeline. It wires the season
// loader, the domain stages and the output store together and records what
// each stage produced.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/kabaddi/internal/adapters/repository"
	"github.com/okian/kabaddi/internal/adapters/source"
	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/internal/domain/assembly"
	"github.com/okian/kabaddi/internal/domain/features"
	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/reduce"
	"github.com/okian/kabaddi/internal/domain/scoring"
	"github.com/okian/kabaddi/internal/domain/standardize"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/internal/domain/zscore"
	"github.com/okian/kabaddi/internal/reconcile"
	"github.com/okian/kabaddi/pkg/logger"
	"github.com/okian/kabaddi/pkg/metrics"
)

// Output files written by the feature stages, relative to the output directory.
const (
	IssuesFile             = "inconsistent_records.csv"
	RoleSuccessFile        = "player_role_success.csv"
	SynergyFile            = "player_synergy.csv"
	ContributionFile       = "player_team_contribution.csv"
	MetricContributionFile = "player_contribution_stats.csv"
	SkillScoresFile        = "player_skill_scores.csv"
	FeaturesFile           = "team_building_features.csv"
	AttributesFile         = "team_building_attributes.csv"
	FixedEventsFile        = "fixed_events_dataset.csv"
	ManifestFile           = "run_manifest.yaml"
)

// errMissingInput marks a stage whose input was not produced in this run.
var errMissingInput = errors.New("input not available")

// Tables carries the standardized tables from Standardize to Features.
// A nil table means its stage was skipped.
type Tables struct {
	Players *table.Table
	Teams   *table.Table
}

// Service runs the pipeline stages for one batch.
type Service struct {
	cfg     *config.Config
	store   repository.Store
	runID   string
	command string

	// Stage components
	loader       *source.SeasonLoader
	standardizer *standardize.Standardizer
	deriver      *features.Deriver
	scorer       *scoring.Scorer
	assembler    *assembly.Assembler

	// State
	started   bool
	startedAt time.Time
	skipped   []string

	logger logger.Logger
}

// New constructs a Service. Without WithConfig the defaults are used.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:     config.New(),
		command: "run",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the output store and the stage components.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	s.startedAt = time.Now()

	cfg := s.cfg
	if s.store == nil {
		opts := []repository.Option{repository.WithLogger(s.logger.Named("repository"))}
		if cfg.Workbook != "" {
			opts = append(opts, repository.WithWorkbook(cfg.Workbook))
		}
		store, err := repository.NewFileStore(cfg.OutputDir, opts...)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.store = store
	}

	s.loader = source.NewSeasonLoader(cfg.InputDir,
		source.WithSeasonRange(cfg.FirstSeason, cfg.LastSeason),
		source.WithFilePattern(cfg.SeasonFilePattern),
		source.WithLogger(s.logger.Named("loader")),
	)
	s.standardizer = standardize.New(
		standardize.WithAliases(cfg.TeamAliases),
		standardize.WithPolicy(standardize.Policy(cfg.Aggregation)),
		standardize.WithLogger(s.logger.Named("standardizer")),
	)
	canon := s.standardizer.Canonicalizer()
	s.deriver = features.New(
		features.WithTeamNamer(canon),
		features.WithPlayerStatColumns(cfg.PlayerStatColumns),
		features.WithLogger(s.logger.Named("features")),
	)
	s.scorer = scoring.NewScorer(
		scoring.WithRules(cfg.ScoringRules),
		scoring.WithWinBonus(cfg.WinBonus),
		scoring.WithNameNormalizer(features.NormalizeName),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	s.assembler = assembly.New(
		assembly.WithLinear(reduce.PCA{Components: cfg.LinearComponents}),
		assembly.WithEmbedding(reduce.NeighborEmbedding{
			Components: cfg.EmbeddingComponents,
			Neighbors:  cfg.Neighbors,
			Epochs:     cfg.Epochs,
			Seed:       cfg.Seed,
		}),
		assembly.WithNameNormalizer(features.NormalizeName),
		assembly.WithLogger(s.logger.Named("assembly")),
	)

	if conflicts := canon.Conflicts(); len(conflicts) > 0 {
		s.logger.Warn(ctx, "team aliases map canonical names again; canonicalization is not idempotent",
			logger.Any("names", conflicts))
	}

	s.started = true
	s.logger.Info(ctx, "pipeline started",
		logger.String("command", s.command),
		logger.String("input_dir", cfg.InputDir),
		logger.String("output_dir", cfg.OutputDir),
		logger.String("aggregation", cfg.Aggregation))
	return nil
}

// RunID returns the id attached to every log entry and the manifest.
func (s *Service) RunID() string { return s.runID }

// Skipped returns the stages skipped so far, in order.
func (s *Service) Skipped() []string { return append([]string(nil), s.skipped...) }

// Run executes every stage: standardization, then the feature stages on the
// freshly standardized tables.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	tables, stdErr := s.Standardize(ctx)
	featErr := s.Features(ctx, &tables)
	return errors.Join(stdErr, featErr)
}

// Standardize loads the season files of every configured source, collapses
// them into one row per entity, adds z-score columns and writes the player
// and team tables. An entity kind without records is skipped.
func (s *Service) Standardize(ctx context.Context) (Tables, error) {
	if !s.started {
		return Tables{}, ErrNotStarted
	}

	var out Tables
	jobs := []struct {
		kind    model.EntityKind
		sources []model.StatSource
		file    string
		dst     **table.Table
	}{
		{model.Player, s.cfg.PlayerStats, s.cfg.PlayerStatsOutput, &out.Players},
		{model.Team, s.cfg.TeamStats, s.cfg.TeamStatsOutput, &out.Teams},
	}

	var errs []error
	for _, job := range jobs {
		err := s.stage(ctx, "standardize_"+string(job.kind), func(ctx context.Context) error {
			var records []model.StatRecord
			for _, src := range job.sources {
				records = append(records, s.loader.LoadSeasons(ctx, src, job.kind)...)
			}
			et, err := s.standardizer.Standardize(ctx, records, job.kind, config.Columns(job.sources))
			if err != nil {
				return err
			}
			t := et.ToTable(tableName(job.file))
			if err := zscore.Apply(t, et.StatColumns); err != nil {
				return err
			}
			if err := s.write(ctx, t, job.file); err != nil {
				return err
			}
			*job.dst = t
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// inputs are the files the feature stages read from the input directory.
type inputs struct {
	events      []model.Event
	eventsErr   error
	matches     []model.Match
	matchesErr  error
	seasonStats *table.Table
	statsErr    error
}

// Features derives every feature table. With a nil tables argument the
// standardized tables are read back from the output directory, so the stage
// can run on its own.
func (s *Service) Features(ctx context.Context, tables *Tables) error {
	if !s.started {
		return ErrNotStarted
	}
	players, teams, err := s.standardized(ctx, tables)
	if err != nil {
		return err
	}

	in := inputs{}
	in.events, in.eventsErr = source.ReadEvents(s.inputPath(s.cfg.EventsFile), features.NormalizeName)
	in.matches, in.matchesErr = source.ReadMatches(s.inputPath(s.cfg.MatchesFile))
	in.seasonStats, in.statsErr = source.ReadTable(s.inputPath(s.cfg.PlayerSeasonStatsFile))

	var (
		errs         []error
		roleSuccess  *table.Table
		contribution *table.Table
	)
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(s.stage(ctx, "reconcile", func(ctx context.Context) error {
		if err := errors.Join(in.eventsErr, in.matchesErr, in.statsErr); err != nil {
			return err
		}
		stats := in.seasonStats.Clone(in.seasonStats.Name)
		stats.Rename(s.cfg.PlayerStatColumns)
		canonical := s.standardizer.Canonicalizer().Canonical
		playerTeams, err := reconcile.NewPlayerTeams(stats, features.NormalizeName, canonical)
		if err != nil {
			return err
		}
		issues := reconcile.Check(in.events, in.matches, playerTeams, canonical)
		if err := s.write(ctx, reconcile.IssuesTable(issues), IssuesFile); err != nil {
			return err
		}
		if s.cfg.RepairSeasons {
			repaired, moved := reconcile.RepairSeasons(in.events, in.matches, playerTeams, canonical)
			in.events = repaired
			s.logger.Info(ctx, "event seasons repaired", logger.Int("moved", moved))
		}
		if s.cfg.RepairMatchIDs {
			repaired, moved := reconcile.RepairMatchIDs(in.events, in.matches, playerTeams, canonical)
			in.events = repaired
			s.logger.Info(ctx, "event match ids repaired", logger.Int("moved", moved))
		}
		if s.cfg.RepairSeasons || s.cfg.RepairMatchIDs {
			return s.write(ctx, reconcile.EventsTable(in.events), FixedEventsFile)
		}
		return nil
	}))

	collect(s.stage(ctx, "role_success", func(ctx context.Context) error {
		if in.eventsErr != nil {
			return in.eventsErr
		}
		t := s.deriver.RoleSuccess(ctx, in.events)
		if err := s.write(ctx, t, RoleSuccessFile); err != nil {
			return err
		}
		roleSuccess = t
		return nil
	}))

	collect(s.stage(ctx, "synergy", func(ctx context.Context) error {
		if in.eventsErr != nil {
			return in.eventsErr
		}
		return s.write(ctx, features.SynergyTable(features.Synergy(in.events)), SynergyFile)
	}))

	collect(s.stage(ctx, "contribution", func(ctx context.Context) error {
		if err := errors.Join(in.statsErr, teams.err); err != nil {
			return err
		}
		t, err := s.deriver.Contribution(ctx, in.seasonStats, teams.t)
		if err != nil {
			return err
		}
		if err := s.write(ctx, t, ContributionFile); err != nil {
			return err
		}
		contribution = t
		return nil
	}))

	collect(s.stage(ctx, "metric_contribution", func(ctx context.Context) error {
		if err := errors.Join(players.err, teams.err); err != nil {
			return err
		}
		t, err := s.deriver.MetricContribution(ctx, players.t, teams.t)
		if err != nil {
			return err
		}
		return s.write(ctx, t, MetricContributionFile)
	}))

	collect(s.stage(ctx, "skill_scores", func(ctx context.Context) error {
		if err := errors.Join(in.eventsErr, in.matchesErr, players.err); err != nil {
			return err
		}
		results, err := s.scorer.Score(ctx, in.events, in.matches, players.t)
		if err != nil {
			return err
		}
		return s.write(ctx, scoring.ResultsTable(results), SkillScoresFile)
	}))

	collect(s.stage(ctx, "assembly", func(ctx context.Context) error {
		if roleSuccess == nil || contribution == nil {
			return fmt.Errorf("%w: role success or contribution", errMissingInput)
		}
		if players.err != nil {
			return players.err
		}
		res, err := s.assembler.Assemble(ctx, roleSuccess, contribution, players.t)
		if err != nil {
			return err
		}
		if err := s.write(ctx, res.Features, FeaturesFile); err != nil {
			return err
		}
		if !res.Reduced {
			s.skipped = append(s.skipped, "reduction")
			return nil
		}
		if res.Importance == nil {
			s.skipped = append(s.skipped, "importance")
			return nil
		}
		return s.write(ctx, res.Importance, AttributesFile)
	}))

	return errors.Join(errs...)
}

// input is a standardized table or the reason it is unavailable.
type input struct {
	t   *table.Table
	err error
}

func (s *Service) standardized(ctx context.Context, tables *Tables) (input, input, error) {
	if tables != nil {
		return present(tables.Players, "players"), present(tables.Teams, "teams"), ctx.Err()
	}
	read := func(file string) input {
		t, err := source.ReadTable(filepath.Join(s.cfg.OutputDir, file))
		if err != nil {
			s.logger.Warn(ctx, "standardized table not readable", logger.String("file", file), logger.Error(err))
		}
		return input{t: t, err: err}
	}
	return read(s.cfg.PlayerStatsOutput), read(s.cfg.TeamStatsOutput), ctx.Err()
}

func present(t *table.Table, name string) input {
	if t == nil {
		return input{err: fmt.Errorf("%w: standardized %s", errMissingInput, name)}
	}
	return input{t: t}
}

// Stop closes the store, writes the run manifest and, when configured, the
// metrics textfile.
func (s *Service) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}
	s.started = false

	var errs []error
	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	finished := time.Now()
	manifest := repository.Manifest{
		RunID:      s.runID,
		Command:    s.command,
		StartedAt:  s.startedAt,
		FinishedAt: finished,
		Artifacts:  s.store.Artifacts(),
		Skipped:    s.skipped,
		Config:     s.cfg,
	}
	if _, err := s.store.WriteManifest(ctx, manifest, ManifestFile); err != nil {
		errs = append(errs, err)
	}

	metrics.MarkRunFinished(finished)
	if s.cfg.MetricsFile != "" {
		path := s.cfg.MetricsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.cfg.OutputDir, path)
		}
		if err := metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		} else {
			s.logger.Info(ctx, "metrics written", logger.String("path", path))
		}
	}

	s.logger.Info(ctx, "pipeline finished",
		logger.String("command", s.command),
		logger.Int("artifacts", len(manifest.Artifacts)),
		logger.Any("skipped", s.skipped),
		logger.String("duration", finished.Sub(s.startedAt).String()))
	return errors.Join(errs...)
}

// stage runs fn with timing. Missing or empty inputs skip the stage; other
// failures are logged and returned wrapped in ErrStageFailed.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(name, time.Since(start))

	switch {
	case err == nil:
		s.logger.Debug(ctx, "stage finished",
			logger.String("stage", name),
			logger.String("duration", time.Since(start).String()))
		return nil
	case skippable(err):
		s.skipped = append(s.skipped, name)
		metrics.RecordStageError(name, "skipped")
		s.logger.Warn(ctx, "stage skipped", logger.String("stage", name), logger.Error(err))
		return nil
	default:
		metrics.RecordStageError(name, errorType(err))
		s.logger.Error(ctx, "stage failed", logger.String("stage", name), logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStageFailed, name, err)
	}
}

func skippable(err error) bool {
	if errors.Is(err, table.ErrSchemaMismatch) {
		return false
	}
	return errors.Is(err, standardize.ErrNoData) ||
		errors.Is(err, source.ErrReadTable) ||
		errors.Is(err, reduce.ErrInsufficientData) ||
		errors.Is(err, errMissingInput)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, table.ErrSchemaMismatch):
		return "schema"
	case errors.Is(err, table.ErrUnknownColumn):
		return "column"
	case errors.Is(err, repository.ErrWrite):
		return "write"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func (s *Service) write(ctx context.Context, t *table.Table, file string) error {
	a, err := s.store.WriteTable(ctx, t, file)
	if err != nil {
		return err
	}
	metrics.UpdateTableRows(a.Name, a.Rows)
	return nil
}

func (s *Service) inputPath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.cfg.InputDir, file)
}

func tableName(file string) string {
	return file[:len(file)-len(filepath.Ext(file))]
}
