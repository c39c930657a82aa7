package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// PersistJobType identifies queued write-back jobs.
const PersistJobType = "timetable.persist"

// SessionLoader supplies the raw lab and theory session lists.
type SessionLoader interface {
	LoadSessions(ctx context.Context) (lab []models.Session, theory []models.Session, err error)
}

// SessionPersister writes the committed session lists back to durable storage.
type SessionPersister interface {
	SaveSessions(ctx context.Context, lab []models.Session, theory []models.Session) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// PersistPayload is the payload of a persistence job.
type PersistPayload struct {
	Generation uint64
	Lab        []models.Session
	Theory     []models.Session
}

// TimetableConfig tunes the timetable service.
type TimetableConfig struct {
	DefaultRoomCapacity int
	SummaryCacheTTL     time.Duration
	Rules               []CoScheduleRule
}

// TimetableService owns the session directory and serialises analysis and edits on it.
type TimetableService struct {
	mu        sync.Mutex
	dir       *SessionDirectory
	evaluator *CoScheduleEvaluator
	indexer   *ConflictIndexer
	validator *AllocationValidator
	report    models.ConflictReport

	loader    SessionLoader
	persister SessionPersister
	queue     jobEnqueuer
	cache     *CacheService
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration

	persistMu       sync.Mutex
	savedGeneration uint64
}

// NewTimetableService wires the analysis engine with its collaborators. Any collaborator may be nil.
func NewTimetableService(
	loader SessionLoader,
	persister SessionPersister,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := NewSessionDirectory(cfg.DefaultRoomCapacity)
	evaluator := NewCoScheduleEvaluator(cfg.Rules...)
	return &TimetableService{
		dir:       dir,
		evaluator: evaluator,
		indexer:   NewConflictIndexer(evaluator, logger),
		validator: NewAllocationValidator(dir, evaluator),
		loader:    loader,
		persister: persister,
		cache:     cache,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
		cacheTTL:  cfg.SummaryCacheTTL,
	}
}

// UseQueue routes post-commit persistence through an asynchronous job queue.
func (s *TimetableService) UseQueue(queue jobEnqueuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

// Load pulls sessions from the configured loader and analyses them.
func (s *TimetableService) Load(ctx context.Context) (*models.ConflictReport, error) {
	if s.loader == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no session loader configured")
	}
	lab, theory, err := s.loader.LoadSessions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	report := s.LoadSessions(ctx, lab, theory)
	return &report, nil
}

// LoadSessions replaces the directory contents and returns the fresh conflict report.
func (s *TimetableService) LoadSessions(ctx context.Context, lab, theory []models.Session) models.ConflictReport {
	s.mu.Lock()
	s.dir.Load(lab, theory)
	report := s.analyzeLocked()
	s.mu.Unlock()

	s.invalidateSummary(ctx)
	s.logger.Info("timetable loaded",
		zap.Int("lab_sessions", len(lab)),
		zap.Int("theory_sessions", len(theory)),
		zap.Int("duplicates_removed", report.RemovedDuplicates),
		zap.Int("conflicts", len(report.Conflicts)),
	)
	return report
}

// analyzeLocked runs dedupe followed by a full index. Callers hold s.mu.
func (s *TimetableService) analyzeLocked() models.ConflictReport {
	start := time.Now()
	duplicates, removed := ResolveDuplicates(s.dir)
	indexed := s.indexer.Index(s.dir)

	conflicts := make([]models.Conflict, 0, len(duplicates)+len(indexed.All()))
	conflicts = append(conflicts, duplicates...)
	conflicts = append(conflicts, indexed.All()...)

	s.report = models.ConflictReport{
		Generation:        s.dir.Generation(),
		GeneratedAt:       time.Now().UTC(),
		SessionCount:      s.dir.Len(),
		RemovedDuplicates: removed,
		Conflicts:         conflicts,
	}
	s.metrics.ObserveAnalysis(s.report, len(s.dir.LabSessions()), len(s.dir.TheorySessions()), time.Since(start))
	return s.report
}

func (s *TimetableService) ensureLoadedLocked() error {
	if !s.dir.Loaded() {
		return appErrors.ErrNotLoaded
	}
	return nil
}

// Generation returns the current directory generation.
func (s *TimetableService) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Generation()
}

// Ready reports whether sessions have been loaded.
func (s *TimetableService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Loaded()
}

// Report returns the latest conflict report.
func (s *TimetableService) Report() (models.ConflictReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return models.ConflictReport{}, err
	}
	return s.report, nil
}

// Summarize counts the conflicts of a report by type and severity.
func Summarize(report models.ConflictReport) models.ConflictSummary {
	summary := models.ConflictSummary{
		Generation: report.Generation,
		Total:      len(report.Conflicts),
		ByType:     make(map[models.ConflictType]int),
		BySeverity: map[models.Severity]int{
			models.SeverityHigh:    0,
			models.SeverityMedium:  0,
			models.SeverityWarning: 0,
		},
	}
	for _, conflict := range report.Conflicts {
		summary.ByType[conflict.Type]++
		summary.BySeverity[conflict.Severity]++
	}
	return summary
}

// ConflictSummary returns conflict counts, served from cache when the generation matches.
func (s *TimetableService) ConflictSummary(ctx context.Context) (models.ConflictSummary, error) {
	report, err := s.Report()
	if err != nil {
		return models.ConflictSummary{}, err
	}
	key := SummaryCacheKey(report.Generation)
	var cached models.ConflictSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	summary := Summarize(report)
	_ = s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

func (s *TimetableService) invalidateSummary(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, SummaryCachePattern)
}

// Conflicts lists report entries matching the filter.
func (s *TimetableService) Conflicts(filter models.ConflictFilter) ([]models.Conflict, error) {
	report, err := s.Report()
	if err != nil {
		return nil, err
	}
	out := make([]models.Conflict, 0, len(report.Conflicts))
	for _, conflict := range report.Conflicts {
		if filter.Type != "" && conflict.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && conflict.Severity != filter.Severity {
			continue
		}
		out = append(out, conflict)
	}
	return out, nil
}

// SessionConflicts lists teacher and room clashes for one session.
func (s *TimetableService) SessionConflicts(index int) ([]models.ValidationIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	if _, ok := s.dir.At(index); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", index))
	}
	return s.validator.SessionConflicts(index), nil
}

// Session returns the session at index.
func (s *TimetableService) Session(index int) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return models.Session{}, err
	}
	session, ok := s.dir.At(index)
	if !ok {
		return models.Session{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", index))
	}
	return session, nil
}

// SearchSessions performs a case-insensitive substring search. An empty query lists everything.
func (s *TimetableService) SearchSessions(query string) ([]models.IndexedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return s.dir.Search(query), nil
}

// Validate checks a proposed session without committing it. originalIndex is
// NewSessionIndex for a new session.
func (s *TimetableService) Validate(candidate models.Session, originalIndex int) (models.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return models.ValidationResult{}, err
	}
	if originalIndex != NewSessionIndex {
		if _, ok := s.dir.At(originalIndex); !ok {
			return models.ValidationResult{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", originalIndex))
		}
	}
	result := s.validator.Validate(candidate, originalIndex)
	s.metrics.RecordValidation(result.IsValid)
	return result, nil
}

// ApplyAllocationChange validates updated as a replacement for the session at
// index and commits it when valid. A rejection is returned as data with Success=false.
func (s *TimetableService) ApplyAllocationChange(ctx context.Context, index int, updated models.Session) (models.AllocationResult, error) {
	s.mu.Lock()
	if err := s.ensureLoadedLocked(); err != nil {
		s.mu.Unlock()
		return models.AllocationResult{}, err
	}
	original, ok := s.dir.At(index)
	if !ok {
		s.mu.Unlock()
		return models.AllocationResult{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", index))
	}
	if updated.ScheduleType == "" {
		updated.ScheduleType = original.ScheduleType
	}

	validation := s.validator.Validate(updated, index)
	s.metrics.RecordValidation(validation.IsValid)
	if !validation.IsValid {
		s.mu.Unlock()
		s.logger.Info("allocation change rejected",
			zap.Int("index", index),
			zap.String("course", updated.CourseCode),
			zap.Int("conflicts", len(validation.Conflicts)),
		)
		return models.AllocationResult{
			Success:   false,
			Message:   "Allocation change failed validation",
			Index:     index,
			Conflicts: validation.Conflicts,
			Warnings:  validation.Warnings,
		}, nil
	}

	s.dir.Replace(index, updated)
	report := s.analyzeLocked()
	payload := PersistPayload{Generation: s.dir.Generation(), Lab: s.dir.LabSessions(), Theory: s.dir.TheorySessions()}
	s.mu.Unlock()

	s.invalidateSummary(ctx)
	s.persist(ctx, payload)
	s.logger.Info("allocation change applied",
		zap.Int("index", index),
		zap.String("course", updated.CourseCode),
		zap.String("day", updated.Day),
		zap.String("time", TimeKey(updated)),
		zap.Uint64("generation", report.Generation),
	)
	return models.AllocationResult{
		Success:  true,
		Message:  "Allocation change applied successfully",
		Index:    index,
		Warnings: validation.Warnings,
		Report:   &report,
	}, nil
}

// ValidateProposal validates the payload shape and then the allocation itself.
func (s *TimetableService) ValidateProposal(req dto.ValidateAllocationRequest) (models.ValidationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.ValidationResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	originalIndex := NewSessionIndex
	if req.OriginalIndex != nil {
		originalIndex = *req.OriginalIndex
	}
	return s.Validate(req.Session.ToModel(), originalIndex)
}

// ApplyProposal validates the payload shape and applies it to the session at index.
func (s *TimetableService) ApplyProposal(ctx context.Context, index int, payload dto.SessionPayload) (models.AllocationResult, error) {
	if err := s.validate.Struct(payload); err != nil {
		return models.AllocationResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	return s.ApplyAllocationChange(ctx, index, payload.ToModel())
}

// ListConflicts validates the query and filters the latest report.
func (s *TimetableService) ListConflicts(query dto.ConflictQuery) ([]models.Conflict, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict filter")
	}
	return s.Conflicts(models.ConflictFilter{Type: models.ConflictType(query.Type), Severity: models.Severity(query.Severity)})
}

func (s *TimetableService) persist(ctx context.Context, payload PersistPayload) {
	if s.persister == nil {
		return
	}
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: PersistJobType, Payload: payload}
		err := queue.Enqueue(job)
		if err == nil {
			s.metrics.RecordPersistJob("queued")
			return
		}
		s.logger.Warn("persist enqueue failed, saving inline", zap.Error(err))
	}
	if err := s.save(ctx, payload); err != nil {
		s.logger.Error("persist sessions failed", zap.Uint64("generation", payload.Generation), zap.Error(err))
	}
}

// HandlePersistJob is the job handler for queued persistence.
func (s *TimetableService) HandlePersistJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(PersistPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	return s.save(ctx, payload)
}

func (s *TimetableService) save(ctx context.Context, payload PersistPayload) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if payload.Generation < s.savedGeneration {
		s.logger.Debug("skipping stale persist", zap.Uint64("generation", payload.Generation), zap.Uint64("saved", s.savedGeneration))
		return nil
	}
	if err := s.persister.SaveSessions(ctx, payload.Lab, payload.Theory); err != nil {
		s.metrics.RecordPersistJob("failed")
		return err
	}
	s.savedGeneration = payload.Generation
	s.metrics.RecordPersistJob("saved")
	s.logger.Debug("sessions persisted", zap.Uint64("generation", payload.Generation))
	return nil
}

// occupancy collects rooms and teachers busy on day at timeKey.
type occupancy struct {
	rooms    map[string]struct{}
	labRooms map[string]struct{}
	teachers map[string]struct{}
}

func (s *TimetableService) occupancyLocked(day, timeKey string, excludeIndex int) occupancy {
	slot := models.Session{Day: day, ScheduleType: models.ScheduleTypeTheory, TimeSlot: timeKey}
	occ := occupancy{rooms: map[string]struct{}{}, labRooms: map[string]struct{}{}, teachers: map[string]struct{}{}}
	for _, item := range s.dir.Indexed() {
		if item.Index == excludeIndex || !SameDay(slot, item.Session) || !SameTime(slot, item.Session) {
			continue
		}
		occ.rooms[item.Session.RoomID] = struct{}{}
		occ.teachers[item.Session.TeacherID] = struct{}{}
		if item.Session.IsLab() {
			occ.labRooms[item.Session.RoomID] = struct{}{}
		}
	}
	return occ
}

// AvailableRooms lists rooms free on day at timeKey. Lab sessions need a free lab
// room; theory sessions may also use a lab room not held by a lab session.
func (s *TimetableService) AvailableRooms(day, timeKey string, scheduleType models.ScheduleType, excludeIndex int) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	occ := s.occupancyLocked(day, timeKey, excludeIndex)
	out := make([]models.Room, 0)
	for _, room := range s.dir.Rooms() {
		_, busy := occ.rooms[room.ID]
		_, labBusy := occ.labRooms[room.ID]
		switch scheduleType {
		case models.ScheduleTypeLab:
			if room.Type == models.RoomTypeLab && !busy {
				out = append(out, room)
			}
		case models.ScheduleTypeTheory:
			if !busy || (room.Type == models.RoomTypeLab && !labBusy) {
				out = append(out, room)
			}
		default:
			if !busy {
				out = append(out, room)
			}
		}
	}
	return out, nil
}

// AvailableTeachers lists teachers with no session on day at timeKey.
func (s *TimetableService) AvailableTeachers(day, timeKey string, excludeIndex int) ([]models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	occ := s.occupancyLocked(day, timeKey, excludeIndex)
	out := make([]models.Teacher, 0)
	for _, teacher := range s.dir.Teachers() {
		if _, busy := occ.teachers[teacher.ID]; !busy {
			out = append(out, teacher)
		}
	}
	return out, nil
}

// AvailableTimeSlots lists canonical slots of scheduleType left free on day by
// every session matching filter. An empty filter considers every session.
func (s *TimetableService) AvailableTimeSlots(day string, scheduleType models.ScheduleType, filter models.SlotFilter, excludeIndex int) ([]models.TimeSlotOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	candidates := make([]models.TimeSlotOption, 0, len(timeslot.TheorySlots))
	if scheduleType == models.ScheduleTypeLab {
		for _, code := range timeslot.LabCodes {
			r, _ := timeslot.LabRange(code)
			candidates = append(candidates, models.TimeSlotOption{Key: code, Value: r, Display: fmt.Sprintf("%s (%s)", code, r)})
		}
	} else {
		for _, slot := range timeslot.TheorySlots {
			candidates = append(candidates, models.TimeSlotOption{Key: slot, Value: slot, Display: slot})
		}
	}

	relevant := make([]models.Session, 0)
	normalized := timeslot.NormalizeDay(day)
	for _, item := range s.dir.Indexed() {
		sess := item.Session
		if item.Index == excludeIndex || timeslot.NormalizeDay(sess.Day) != normalized {
			continue
		}
		if filter.RoomID != "" && sess.RoomID != filter.RoomID {
			continue
		}
		if filter.TeacherID != "" && sess.TeacherID != filter.TeacherID {
			continue
		}
		if filter.GroupName != "" && sess.GroupName != filter.GroupName {
			continue
		}
		relevant = append(relevant, sess)
	}

	out := make([]models.TimeSlotOption, 0, len(candidates))
	for _, option := range candidates {
		free := true
		for _, sess := range relevant {
			key := TimeKey(sess)
			if key == option.Key || key == option.Value || timeslot.OverlapLabels(option.Value, key) {
				free = false
				break
			}
		}
		if free {
			out = append(out, option)
		}
	}
	return out, nil
}

// Entities returns the derived teacher, room and group sets.
func (s *TimetableService) Entities() (models.Entities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return models.Entities{}, err
	}
	return s.dir.Entities(), nil
}

// Snapshot exports the directory with its latest report.
func (s *TimetableService) Snapshot(ctx context.Context) (models.ScheduleSnapshot, error) {
	summary, err := s.ConflictSummary(ctx)
	if err != nil {
		return models.ScheduleSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ScheduleSnapshot{
		LabSessions:    s.dir.LabSessions(),
		TheorySessions: s.dir.TheorySessions(),
		AllSessions:    s.dir.Sessions(),
		Report:         s.report,
		Summary:        summary,
	}, nil
}

// SortConflicts orders conflicts by severity, then type.
func SortConflicts(conflicts []models.Conflict) {
	rank := map[models.Severity]int{models.SeverityHigh: 0, models.SeverityMedium: 1, models.SeverityWarning: 2}
	sort.SliceStable(conflicts, func(i, j int) bool {
		if rank[conflicts[i].Severity] != rank[conflicts[j].Severity] {
			return rank[conflicts[i].Severity] < rank[conflicts[j].Severity]
		}
		return conflicts[i].Type < conflicts[j].Type
	})
}
