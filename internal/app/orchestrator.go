package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raysh454/linkscout/internal/competitor"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/metrics"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/session"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Task      string `json:"task,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// TaskOutcome is how one pipeline task ended.
type TaskOutcome string

const (
	TaskOK      TaskOutcome = "ok"
	TaskPartial TaskOutcome = "partial"
	TaskTimeout TaskOutcome = "timeout"
	TaskFailed  TaskOutcome = "failed"
)

const (
	TaskSERP        = "serp"
	TaskCompetitors = "competitors"
	TaskResources   = "resources"
)

// TaskReport summarizes one pipeline task of a scan.
type TaskReport struct {
	Name          string        `json:"name"`
	Outcome       TaskOutcome   `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	Opportunities int           `json:"opportunities"`
	Stored        int           `json:"stored"`
	Missing       int           `json:"missing"`
	Duration      time.Duration `json:"duration"`

	// fatal marks a failure that fails the whole session.
	fatal bool
}

// Job tracks the background pipeline of one scan session. The job id is the
// session id.
type Job struct {
	ID        string        `json:"id"`
	Keyword   string        `json:"keyword"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Tasks     []TaskReport  `json:"tasks"`
	Events    chan JobEvent `json:"-"`
}

func (j *Job) snapshot() *Job {
	cp := *j
	cp.Tasks = append([]TaskReport(nil), j.Tasks...)
	return &cp
}

func (j *Job) finished() bool {
	switch j.Status {
	case JobDone, JobFailed, JobCanceled:
		return true
	}
	return false
}

// Orchestrator starts scans in the background and serves the caller-facing
// operations over the shared components.
type Orchestrator struct {
	cfg     *Config
	comps   *Components
	metrics *metrics.Metrics
	logger  logging.Logger
	now     func() time.Time

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

// ErrClosed is returned by StartScan after Close.
var ErrClosed = errors.New("orchestrator is closed")

// NewOrchestrator ties together config, components, metrics and logger.
// m may be nil.
func NewOrchestrator(cfg *Config, comps *Components, m *metrics.Metrics, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Orchestrator{
		cfg:        cfg,
		comps:      comps,
		metrics:    m,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		now:        time.Now,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(*Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) getCancel(jobID string) context.CancelFunc {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobCancels[jobID]
}

// StartScan creates a session for cfg and runs its pipeline in the
// background. The pipeline outlives ctx's cancellation; use CancelScan to
// stop it.
func (o *Orchestrator) StartScan(ctx context.Context, cfg model.ScanConfiguration) (*Job, error) {
	o.jobsMu.Lock()
	closed := o.closed
	o.jobsMu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	id, err := o.comps.Sessions.CreateSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	o.metrics.SessionStarted()

	cfg = cfg.Normalized()
	job := &Job{
		ID:        id,
		Keyword:   cfg.Keyword,
		Status:    JobPending,
		StartedAt: o.now().UTC(),
		Events:    make(chan JobEvent, 16),
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.jobsMu.Lock()
	o.pruneLocked()
	o.jobs[id] = job
	o.jobCancels[id] = cancel
	snap := job.snapshot()
	o.jobsMu.Unlock()

	o.emitJobEvent(id, JobEvent{JobID: id, Type: JobEventStatus, Status: JobPending})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.runScan(jobCtx, id, cfg)
	}()

	return snap, nil
}

func (o *Orchestrator) runScan(ctx context.Context, id string, cfg model.ScanConfiguration) {
	logger := o.logger.With(logging.Field{Key: "session_id", Value: id})
	defer func() {
		o.jobsMu.Lock()
		delete(o.jobCancels, id)
		j := o.jobs[id]
		if j != nil {
			j.EndedAt = o.now().UTC()
		}
		o.jobsMu.Unlock()

		// Close events channel so websocket loop can terminate cleanly
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.updateJob(id, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(id, JobEvent{JobID: id, Type: JobEventStatus, Status: JobRunning})
	if o.metrics != nil {
		o.metrics.ScansRunning.Inc()
		defer o.metrics.ScansRunning.Dec()
	}

	tasks := []scanTask{{TaskSERP, o.serpTask}}
	if len(cfg.CompetitorDomains) > 0 {
		tasks = append(tasks, scanTask{TaskCompetitors, o.competitorTask})
	}
	if cfg.AnalysisDepth.AtLeast(model.DepthComprehensive) {
		tasks = append(tasks, scanTask{TaskResources, o.resourceTask})
	}

	reports := make([]TaskReport, len(tasks))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t scanTask) {
			defer wg.Done()
			started := o.now()
			r := t.run(ctx, id, cfg)
			r.Name = t.name
			r.Duration = o.now().Sub(started)
			o.metrics.ObserveTask(t.name, string(r.Outcome), started)

			mu.Lock()
			reports[i] = r
			done++
			processed := done
			mu.Unlock()

			o.updateJob(id, func(j *Job) { j.Tasks = append(j.Tasks, stripFatal(r)) })
			o.emitJobEvent(id, JobEvent{
				JobID:     id,
				Type:      JobEventProgress,
				Task:      t.name,
				Processed: processed,
				Total:     len(tasks),
			})
		}(i, t)
	}
	wg.Wait()

	// The pipeline context may be canceled, but the final transition must
	// still reach the store.
	finalCtx := context.WithoutCancel(ctx)
	var err error
	reason := failureReason(reports)
	switch {
	case ctx.Err() != nil:
		reason = "canceled"
		err = o.comps.Sessions.MarkFailed(finalCtx, id, reason)
	case reason != "":
		err = o.comps.Sessions.MarkFailed(finalCtx, id, reason)
	default:
		err = o.comps.Sessions.MarkCompleted(finalCtx, id)
	}

	var transErr *model.InvalidStateTransitionError
	switch {
	case errors.As(err, &transErr):
		// CancelScan already moved the session.
		o.finishJob(id, JobCanceled, "canceled")
		logger.Info("scan canceled")
		return
	case err != nil:
		logger.Error("couldn't finish session", logging.Err(err))
		o.finishJob(id, JobFailed, err.Error())
		o.metrics.SessionFinished(string(model.StatusFailed))
		return
	case reason == "canceled":
		o.finishJob(id, JobCanceled, reason)
		o.metrics.SessionFinished(string(model.StatusFailed))
	case reason != "":
		o.finishJob(id, JobFailed, reason)
		o.metrics.SessionFinished(string(model.StatusFailed))
	default:
		o.finishJob(id, JobDone, "")
		o.metrics.SessionFinished(string(model.StatusCompleted))
	}
	logger.Info("scan finished", logging.Field{Key: "reason", Value: reason})
}

type scanTask struct {
	name string
	run  func(context.Context, string, model.ScanConfiguration) TaskReport
}

func stripFatal(r TaskReport) TaskReport {
	r.fatal = false
	return r
}

// failureReason returns why the session should fail, or "" when it
// completes. A fatal task fails it outright; otherwise it fails only when no
// task produced anything.
func failureReason(reports []TaskReport) string {
	usable := 0
	for _, r := range reports {
		if r.fatal {
			return fmt.Sprintf("%s: %s", r.Name, r.Error)
		}
		if r.Outcome == TaskOK || r.Outcome == TaskPartial {
			usable++
		}
	}
	if usable == 0 && len(reports) > 0 {
		return "all tasks failed or timed out"
	}
	return ""
}

func (o *Orchestrator) finishJob(id string, status JobStatus, errMsg string) {
	o.updateJob(id, func(j *Job) {
		j.Status = status
		j.Error = errMsg
	})
	typ := JobEventResult
	if status == JobCanceled {
		typ = JobEventStatus
	}
	o.emitJobEvent(id, JobEvent{JobID: id, Type: typ, Status: status, Error: errMsg})
}

// taskError turns a task's error into its report. Deadline errors only make
// the task time out.
func taskError(r TaskReport, err error) TaskReport {
	r.Error = err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		r.Outcome = TaskTimeout
		return r
	}
	r.Outcome = TaskFailed
	return r
}

func (o *Orchestrator) serpTask(ctx context.Context, id string, cfg model.ScanConfiguration) TaskReport {
	var r TaskReport
	report, err := o.comps.SERP.Analyze(ctx, id, cfg)
	if err != nil {
		if errors.Is(err, model.ErrSearchProvider) {
			o.metrics.ProviderError("search")
		}
		r = taskError(r, err)
		r.fatal = r.Outcome == TaskFailed && errors.Is(err, model.ErrSearchProvider)
		return r
	}
	r.Outcome = TaskOK
	r.Opportunities = report.Candidates - report.Filtered
	r.Stored = report.Stored
	r.Missing = len(report.Missing)
	if r.Missing > 0 {
		r.Outcome = TaskPartial
	}
	o.metrics.AddOpportunities(TaskSERP, report.Stored)
	return r
}

func (o *Orchestrator) competitorTask(ctx context.Context, id string, cfg model.ScanConfiguration) TaskReport {
	var r TaskReport
	res, err := o.comps.Competitors.Analyze(ctx, cfg.CompetitorDomains, []string{cfg.Keyword})
	if err != nil {
		o.metrics.ProviderError("backlinks")
		return taskError(r, err)
	}
	r = o.storeOpportunities(ctx, id, res.Opportunities)
	if len(res.Failures) > 0 || len(res.PersistFailures) > 0 {
		r.Outcome = TaskPartial
	}
	o.metrics.AddOpportunities(TaskCompetitors, r.Stored)
	return r
}

func (o *Orchestrator) resourceTask(ctx context.Context, id string, cfg model.ScanConfiguration) TaskReport {
	var r TaskReport
	opps, err := o.comps.Resources.Find(ctx, []string{cfg.Keyword}, cfg.Filters)
	if err != nil {
		o.metrics.ProviderError("search")
		return taskError(r, err)
	}
	r = o.storeOpportunities(ctx, id, opps)
	o.metrics.AddOpportunities(TaskResources, r.Stored)
	return r
}

// storeOpportunities appends opps under the session, retrying each failed
// insert once. Domains already held by the session are skipped.
func (o *Orchestrator) storeOpportunities(ctx context.Context, id string, opps []model.LinkOpportunity) TaskReport {
	r := TaskReport{Outcome: TaskOK, Opportunities: len(opps)}
	for i := range opps {
		stored, err := o.comps.Store.InsertOpportunity(ctx, id, &opps[i])
		if err != nil {
			stored, err = o.comps.Store.InsertOpportunity(ctx, id, &opps[i])
		}
		switch {
		case err != nil:
			o.logger.Error("opportunity not persisted",
				logging.Field{Key: "session_id", Value: id},
				logging.Field{Key: "domain", Value: opps[i].Domain},
				logging.Err(err))
			r.Missing++
		case stored:
			r.Stored++
		}
	}
	if r.Missing > 0 {
		r.Outcome = TaskPartial
	}
	return r
}

// CancelScan stops a running scan and marks its session failed with reason
// "canceled". Results already written stay readable.
func (o *Orchestrator) CancelScan(ctx context.Context, id string) error {
	if err := o.comps.Sessions.MarkFailed(ctx, id, "canceled"); err != nil {
		return err
	}
	if cancel := o.getCancel(id); cancel != nil {
		cancel()
	}
	o.metrics.SessionFinished(string(model.StatusFailed))
	o.updateJob(id, func(j *Job) {
		if !j.finished() {
			j.Status = JobCanceled
			j.Error = "canceled"
		}
	})
	return nil
}

func (o *Orchestrator) GetResults(ctx context.Context, id string) (*session.Results, error) {
	return o.comps.Sessions.GetResults(ctx, id)
}

// GetOpportunities returns the competitor and resource page opportunities
// stored under a session.
func (o *Orchestrator) GetOpportunities(ctx context.Context, id string) ([]model.LinkOpportunity, error) {
	if _, err := o.comps.Sessions.Session(ctx, id); err != nil {
		return nil, err
	}
	return o.comps.Store.ListOpportunities(ctx, id)
}

func (o *Orchestrator) AnalyzeCompetitors(ctx context.Context, domains, keywords []string) (*competitor.Result, error) {
	if len(domains) == 0 {
		return nil, &model.InvalidConfigError{Field: "domains", Reason: "at least one domain is required"}
	}
	started := o.now()
	res, err := o.comps.Competitors.Analyze(ctx, domains, keywords)
	if err != nil {
		o.metrics.ProviderError("backlinks")
		o.metrics.ObserveTask(TaskCompetitors, string(TaskFailed), started)
		return res, err
	}
	o.metrics.ObserveTask(TaskCompetitors, string(TaskOK), started)
	o.metrics.AddOpportunities(TaskCompetitors, len(res.Opportunities))
	return res, nil
}

func (o *Orchestrator) FindBrokenLinkOpportunities(ctx context.Context, domain string, keywords []string) ([]model.LinkOpportunity, error) {
	if domain == "" {
		return nil, &model.InvalidConfigError{Field: "domain", Reason: "must not be empty"}
	}
	started := o.now()
	opps, err := o.comps.BrokenLinks.Find(ctx, domain, keywords)
	if err != nil {
		o.metrics.ProviderError("links")
		o.metrics.ObserveTask("broken_links", string(TaskFailed), started)
		return nil, err
	}
	o.metrics.ObserveTask("broken_links", string(TaskOK), started)
	o.metrics.AddOpportunities("broken_links", len(opps))
	return opps, nil
}

func (o *Orchestrator) FindResourcePageOpportunities(ctx context.Context, keywords []string, filters model.Filters) ([]model.LinkOpportunity, error) {
	if len(keywords) == 0 {
		return nil, &model.InvalidConfigError{Field: "keywords", Reason: "at least one keyword is required"}
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	started := o.now()
	opps, err := o.comps.Resources.Find(ctx, keywords, filters.Normalized())
	if err != nil {
		o.metrics.ProviderError("search")
		o.metrics.ObserveTask(TaskResources, string(TaskFailed), started)
		return nil, err
	}
	o.metrics.ObserveTask(TaskResources, string(TaskOK), started)
	o.metrics.AddOpportunities(TaskResources, len(opps))
	return opps, nil
}

func (o *Orchestrator) CompetitorHistory(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error) {
	return o.comps.Competitors.History(ctx, domain, limit)
}

func (o *Orchestrator) CompetitorChanges(ctx context.Context, domain string) (*competitor.ProfileChange, error) {
	return o.comps.Competitors.Changes(ctx, domain)
}

// GetJob returns a snapshot of the job, or nil when it is unknown.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	return j.snapshot()
}

// ListJobs returns snapshots of the retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.pruneLocked()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j.snapshot())
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].StartedAt.Equal(out[k].StartedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].StartedAt.Before(out[k].StartedAt)
	})
	return out
}

// pruneLocked drops finished jobs older than the retention window.
func (o *Orchestrator) pruneLocked() {
	retention := o.cfg.Scan.JobRetention.Duration
	if retention <= 0 {
		return
	}
	cutoff := o.now().Add(-retention)
	for id, j := range o.jobs {
		if j.finished() && !j.EndedAt.IsZero() && j.EndedAt.Before(cutoff) {
			delete(o.jobs, id)
		}
	}
}

// Wait blocks until every background scan has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels running scans, waits for them, and releases the components.
func (o *Orchestrator) Close() error {
	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return nil
	}
	o.closed = true
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()
	o.wg.Wait()
	return o.comps.Close()
}
