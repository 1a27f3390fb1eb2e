package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	"github.com/noah-isme/timetable-engine/pkg/config"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/jobs"
)

const (
	outcomeSolved   = "solved"
	outcomeAccepted = "accepted"
)

type timetableRepository interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertCells(ctx context.Context, exec sqlx.ExtContext, cells []models.TimetableCell) error
	InsertMeetings(ctx context.Context, exec sqlx.ExtContext, meetings []models.TimetableMeeting) error
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListCells(ctx context.Context, timetableID string) ([]models.TimetableCell, error)
	ListMeetings(ctx context.Context, timetableID string) ([]models.TimetableMeeting, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext, name, keepID string) error
}

type teacherPreferenceLister interface {
	ListByTeachers(ctx context.Context, teacherIDs []string) ([]models.TeacherPreference, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Invalidate(ctx context.Context, pattern string) error
}

// TimetableService generates, edits and persists timetables.
type TimetableService struct {
	repo      timetableRepository
	prefs     teacherPreferenceLister
	cache     timetableCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.SchedulerConfig
	store     *proposalStore
	jobs      *jobTracker
	queue     *jobs.Queue
}

// NewTimetableService wires the service. Every collaborator except the
// validator and logger may be nil; operations needing a missing one fail.
func NewTimetableService(
	repo timetableRepository,
	prefs teacherPreferenceLister,
	cacheSvc timetableCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.Engine == "" {
		cfg.Engine = "gini"
	}
	svc := &TimetableService{
		repo:      repo,
		prefs:     prefs,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newProposalStore(cfg.ProposalTTL),
		jobs:      newJobTracker(),
	}
	svc.queue = jobs.NewQueue("timetable-generate", svc.handleJob, jobs.QueueConfig{
		Workers:    cfg.JobWorkers,
		MaxRetries: cfg.JobRetries,
		RetryDelay: time.Second,
		OnGiveUp:   svc.jobGaveUp,
		Logger:     logger,
	})
	return svc
}

// Generate solves a timetable request and stores the outcome as a proposal.
// Solve failures are reported in the response, not as errors.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "timetable generation is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	problem := scheduler.Problem{
		Dims:    scheduler.Dims{Days: req.Days, SlotsPerDay: req.SlotsPerDay},
		Classes: classesFromRequest(req.Classes),
		Lessons: ExpandLoads(req.Loads),
	}

	blocked, err := s.collectBlocked(ctx, problem, req.Blocked, req.IgnorePreferences)
	if err != nil {
		return nil, err
	}

	opts := s.solveOptions(req)
	opts.domain = scheduler.DomainOptions{Blocked: blocked, Forced: req.Forced}

	strategy := req.Strategy
	if strategy == "" {
		strategy = dto.StrategyAuto
	}
	result, used, err := s.solve(ctx, strategy, problem, opts)
	if err != nil {
		return nil, err
	}

	failure := describeFailure(result.Failure)
	outcome := outcomeSolved
	if failure != nil {
		outcome = failure.Kind
	}
	s.metrics.ObserveSolve(used, result.Stats.Engine, string(result.Stats.Status), outcome, result.Stats.Backtracks, result.Stats.Elapsed)

	proposal := timetableProposal{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Strategy:  used,
		Classes:   req.Classes,
		Grid:      result.Grid,
		Meetings:  result.Meetings,
		Unplaced:  result.Unplaced,
		Stats:     result.Stats,
		Failure:   failure,
		Blocked:   blocked,
		CreatedAt: time.Now().UTC(),
	}
	s.saveProposal(ctx, proposal)

	fields := []zap.Field{
		zap.String("proposal_id", proposal.ID),
		zap.String("strategy", used),
		zap.String("engine", result.Stats.Engine),
		zap.String("status", string(result.Stats.Status)),
		zap.Int("lessons", result.Stats.Total),
		zap.Int("backtracks", result.Stats.Backtracks),
		zap.Duration("elapsed", result.Stats.Elapsed),
	}
	if failure != nil {
		s.logger.Warn("timetable solve failed", append(fields, zap.String("failure", failure.Kind), zap.String("reason", failure.Message))...)
	} else {
		s.logger.Info("timetable solved", fields...)
	}

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ID,
		Strategy:   used,
		Solved:     failure == nil,
		Failure:    failure,
		Grid:       proposal.Grid,
		Meetings:   proposal.Meetings,
		Unplaced:   proposal.Unplaced,
		Stats:      proposal.Stats,
		ExpiresAt:  proposal.expiresAt(s.cfg.ProposalTTL),
	}, nil
}

// Edit applies one move, swap or remove. Rejected edits leave the stored
// proposal untouched.
func (s *TimetableService) Edit(ctx context.Context, req dto.EditTimetableRequest) (*dto.EditTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable edit payload")
	}

	var (
		proposal *timetableProposal
		grid     = req.Grid
		base     scheduler.TeacherBlocks
		meetings = req.Meetings
	)
	if req.ProposalID != "" {
		stored, err := s.loadProposal(ctx, req.ProposalID)
		if err != nil {
			return nil, err
		}
		proposal = &stored
		grid = stored.Grid
		base = stored.Blocked
		meetings = append(append([]scheduler.MeetingAssignment(nil), stored.Meetings...), req.Meetings...)
	}
	if err := grid.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	blocked, err := mergeBlocked(base, grid.Dims, req.Blocked)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	// Meetings have no class row, so the editor only sees them as busy teacher slots.
	blocked.BlockMeetings(meetings)

	editReq := scheduler.EditRequest{
		Source: scheduler.Source{
			Kind:    scheduler.SourceKind(req.Source.Kind),
			ClassID: req.Source.ClassID,
			Index:   req.Source.Index,
			LoadID:  req.Source.LoadID,
			Lesson:  lessonFromRequest(req.Source.Lesson),
		},
		Action: scheduler.Action(req.Action),
		Swap:   req.Swap,
	}
	if req.Target != nil {
		editReq.Target = &scheduler.SlotRef{ClassID: req.Target.ClassID, Index: req.Target.Index}
	}

	var removed string
	if editReq.Source.Kind == scheduler.SourceGrid && editReq.Action == scheduler.ActionRemove {
		if cell := grid.At(req.Source.ClassID, req.Source.Index); cell != nil {
			removed = cell.LessonID
		}
	}

	next, err := scheduler.NewEditor(blocked).Apply(grid, editReq)
	if err != nil {
		var editErr *scheduler.EditError
		if errors.As(err, &editErr) {
			s.metrics.RecordEdit(req.Action, editErr.Code)
			s.logger.Info("timetable edit rejected", zap.String("edit", editReq.String()), zap.String("code", editErr.Code), zap.String("reason", editErr.Reason))
			return nil, appErrors.Wrap(err, appErrors.ErrEditRejected.Code, appErrors.ErrEditRejected.Status, editErr.Reason).
				WithDetails(map[string]string{"code": editErr.Code, "reason": editErr.Reason})
		}
		if errors.Is(err, scheduler.ErrInvalidInput) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply timetable edit")
	}
	s.metrics.RecordEdit(req.Action, outcomeAccepted)

	if proposal != nil {
		proposal.Grid = next
		switch {
		case editReq.Source.Kind == scheduler.SourcePool:
			proposal.Unplaced = lo.Without(proposal.Unplaced, editReq.Source.Lesson.ID)
		case removed != "" && !lo.Contains(proposal.Unplaced, removed):
			proposal.Unplaced = append(proposal.Unplaced, removed)
		}
		s.saveProposal(ctx, *proposal)
	}
	return &dto.EditTimetableResponse{ProposalID: req.ProposalID, Grid: next}, nil
}

// Save persists a complete proposal as a new draft version.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable repository unavailable")
	}
	proposal, err := s.loadProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if len(proposal.Unplaced) > 0 {
		if proposal.Failure != nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal was not solved: "+proposal.Failure.Message)
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal has unplaced lessons")
	}
	name := req.Name
	if name == "" {
		name = proposal.Name
	}
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable name is required")
	}

	record, err := newTimetableRecord(name, proposal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	start := time.Now()
	if err = s.repo.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return nil, err
	}
	if err = s.repo.InsertCells(ctx, tx, gridCells(record.ID, proposal.Grid)); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable cells")
		return nil, err
	}
	if err = s.repo.InsertMeetings(ctx, tx, meetingRows(record.ID, proposal.Meetings)); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable meetings")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}
	s.metrics.ObserveDBQuery("timetable_save", time.Since(start))

	s.store.Delete(proposal.ID)
	_ = s.cacheDelete(ctx, proposalCacheKey(proposal.ID))
	s.logger.Info("timetable saved", zap.String("timetable_id", record.ID), zap.String("name", record.Name), zap.Int("version", record.Version))
	return record, nil
}

// List returns saved timetables.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	if s.repo == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal, "timetable repository unavailable")
	}
	filter := models.TimetableFilter{
		Name:     query.Name,
		Status:   models.TimetableStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	start := time.Now()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	s.metrics.ObserveDBQuery("timetable_list", time.Since(start))
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a saved timetable with its grid rebuilt. The bool reports a
// cache hit.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableDetail, bool, error) {
	if id == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if s.repo == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "timetable repository unavailable")
	}
	key := timetableCacheKey(id)
	var cached dto.TimetableDetail
	if hit, _ := s.cacheGet(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	record, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, false, err
	}
	start := time.Now()
	cells, err := s.repo.ListCells(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable cells")
	}
	meetings, err := s.repo.ListMeetings(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable meetings")
	}
	s.metrics.ObserveDBQuery("timetable_get", time.Since(start))

	grid, err := rebuildGrid(record, cells)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is corrupt")
	}
	detail := &dto.TimetableDetail{
		ID:        record.ID,
		Name:      record.Name,
		Version:   record.Version,
		Status:    string(record.Status),
		Engine:    record.Engine,
		Grid:      grid,
		Meetings:  meetingAssignments(meetings),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	_ = s.cacheSet(ctx, key, detail, 0)
	return detail, false, nil
}

// Delete removes a draft timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return appErrors.Clone(appErrors.ErrInternal, "timetable repository unavailable")
	}
	record, err := s.findTimetable(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	_ = s.cacheDelete(ctx, timetableCacheKey(id))
	return nil
}

// Publish marks a timetable published and archives the previously
// published versions with the same name.
func (s *TimetableService) Publish(ctx context.Context, id string) (*models.Timetable, error) {
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable repository unavailable")
	}
	record, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case models.TimetableStatusPublished:
		return record, nil
	case models.TimetableStatusArchived:
		return nil, appErrors.Clone(appErrors.ErrConflict, "archived timetables cannot be published")
	}

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.ArchivePublished(ctx, tx, record.Name, record.ID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published timetables")
		return nil, err
	}
	if err = s.repo.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish transaction")
		return nil, err
	}

	record.Status = models.TimetableStatusPublished
	// Sibling versions were archived in the same transaction; their cached details are stale too.
	_ = s.cacheInvalidate(ctx, timetableCacheKey("*"))
	s.logger.Info("timetable published", zap.String("timetable_id", id), zap.String("name", record.Name), zap.Int("version", record.Version))
	return record, nil
}

func (s *TimetableService) findTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

type solveOptions struct {
	engine        string
	timeLimit     time.Duration
	maxBacktracks int
	workers       int
	subjectCap    int
	meetingCap    int
	domain        scheduler.DomainOptions
}

func (s *TimetableService) solveOptions(req dto.GenerateTimetableRequest) solveOptions {
	opts := solveOptions{
		engine:        s.cfg.Engine,
		timeLimit:     s.cfg.TimeLimit,
		maxBacktracks: s.cfg.MaxBacktracks,
		workers:       s.cfg.Workers,
		subjectCap:    s.cfg.MaxSubjectSlotsPerDay,
		meetingCap:    s.cfg.MaxMeetingsPerDay,
	}
	if req.Engine != "" {
		opts.engine = req.Engine
	}
	if req.TimeLimitMs > 0 {
		opts.timeLimit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}
	if req.MaxBacktracks > 0 {
		opts.maxBacktracks = req.MaxBacktracks
	}
	if req.Workers > 0 {
		opts.workers = req.Workers
	}
	if req.MaxSubjectSlotsPerDay > 0 {
		opts.subjectCap = req.MaxSubjectSlotsPerDay
	}
	if req.MaxMeetingsPerDay > 0 {
		opts.meetingCap = req.MaxMeetingsPerDay
	}
	return opts
}

// solve runs the requested strategy and returns the strategy actually used.
func (s *TimetableService) solve(ctx context.Context, strategy string, p scheduler.Problem, opts solveOptions) (*scheduler.Result, string, error) {
	heuristic := func() (*scheduler.Result, error) {
		return scheduler.NewHeuristicSolver(scheduler.HeuristicOptions{
			TimeLimit:             opts.timeLimit,
			MaxBacktracks:         opts.maxBacktracks,
			MaxSubjectSlotsPerDay: opts.subjectCap,
			Domain:                opts.domain,
		}).Solve(p)
	}
	exact := func() (*scheduler.Result, error) {
		return scheduler.NewExactSolver(scheduler.ExactOptions{
			Engine:                opts.engine,
			TimeLimit:             opts.timeLimit,
			Workers:               opts.workers,
			MaxSubjectSlotsPerDay: opts.subjectCap,
			MaxMeetingsPerDay:     opts.meetingCap,
			Domain:                opts.domain,
		}).Solve(ctx, p)
	}

	var (
		result *scheduler.Result
		used   = strategy
		err    error
	)
	switch strategy {
	case dto.StrategyHeuristic:
		if hasMeetings(p.Lessons) {
			return nil, used, appErrors.Clone(appErrors.ErrUnprocessable, "the heuristic strategy cannot place teacher meetings")
		}
		result, err = heuristic()
	case dto.StrategyExact:
		result, err = exact()
	default:
		used = dto.StrategyExact
		result, err = exact()
		if err == nil && !hasMeetings(p.Lessons) &&
			(errors.Is(result.Failure, scheduler.ErrEngineUnavailable) || errors.Is(result.Failure, scheduler.ErrEngineIncompatible)) {
			s.logger.Warn("constraint engine unusable, falling back to heuristic", zap.String("engine", opts.engine), zap.Error(result.Failure))
			used = dto.StrategyHeuristic
			result, err = heuristic()
		}
	}
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidInput) || errors.Is(err, scheduler.ErrUnsupportedLesson) {
			return nil, used, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, used, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable solve failed")
	}
	return result, used, nil
}

func (s *TimetableService) collectBlocked(ctx context.Context, p scheduler.Problem, extra []dto.BlockedSlotRequest, ignorePrefs bool) (scheduler.TeacherBlocks, error) {
	base := scheduler.TeacherBlocks{}
	if s.prefs != nil && !ignorePrefs {
		if teachers := lessonTeachers(p.Lessons); len(teachers) > 0 {
			start := time.Now()
			prefs, err := s.prefs.ListByTeachers(ctx, teachers)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
			}
			s.metrics.ObserveDBQuery("teacher_preferences", time.Since(start))
			blockPreferences(base, p.Dims, prefs)
		}
	}
	blocked, err := mergeBlocked(base, p.Dims, extra)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return blocked, nil
}

var failureKinds = []struct {
	err  error
	kind string
}{
	{scheduler.ErrInfeasibleDomain, "INFEASIBLE_DOMAIN"},
	{scheduler.ErrBudgetExhausted, "BUDGET_EXHAUSTED"},
	{scheduler.ErrSearchExhausted, "SEARCH_EXHAUSTED"},
	{scheduler.ErrEngineUnavailable, "ENGINE_UNAVAILABLE"},
	{scheduler.ErrEngineIncompatible, "ENGINE_INCOMPATIBLE"},
	{scheduler.ErrSolverInfeasible, "SOLVER_INFEASIBLE"},
	{scheduler.ErrSolverTimeout, "SOLVER_TIMEOUT"},
}

func describeFailure(err error) *dto.SolveFailure {
	if err == nil {
		return nil
	}
	failure := &dto.SolveFailure{Kind: "UNKNOWN", Message: err.Error()}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			failure.Kind = fk.kind
			break
		}
	}
	var domainErr *scheduler.DomainError
	if errors.As(err, &domainErr) {
		failure.LessonID = domainErr.LessonID
	}
	return failure
}

func proposalCacheKey(id string) string  { return cache.Key("proposal", id) }
func timetableCacheKey(id string) string { return cache.Key("timetable", id) }

func (s *TimetableService) saveProposal(ctx context.Context, proposal timetableProposal) {
	s.store.Save(proposal)
	remaining := time.Until(proposal.expiresAt(s.cfg.ProposalTTL))
	if remaining > 0 {
		_ = s.cacheSet(ctx, proposalCacheKey(proposal.ID), proposal, remaining)
	}
}

// loadProposal reads the local store first, then the shared cache so that
// proposals survive a hop to another instance.
func (s *TimetableService) loadProposal(ctx context.Context, id string) (timetableProposal, error) {
	if proposal, ok := s.store.Get(id); ok {
		return proposal, nil
	}
	var cached timetableProposal
	if hit, _ := s.cacheGet(ctx, proposalCacheKey(id), &cached); hit && !s.store.expired(cached) {
		s.store.Save(cached)
		return cached, nil
	}
	return timetableProposal{}, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
}

func (s *TimetableService) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *TimetableService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, value, ttl)
}

func (s *TimetableService) cacheInvalidate(ctx context.Context, pattern string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, pattern)
}

func (s *TimetableService) cacheDelete(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, key)
}
