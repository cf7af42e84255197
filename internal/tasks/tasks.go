// package tasks implements the background enrichment job engine.
//
// The core abstraction is ScoutEngine, which owns job state and runs one
// dedicated worker goroutine per submitted job. The pipeline inside a worker
// is strictly sequential so outbound traffic stays within the shared rate
// limits; multiple jobs may run concurrently and share the process-wide
// fetcher and credential cache.
//
// Callers observe a job through its message queue (drained by Events) and its
// accumulated results; they influence it only through the cancellation flag.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/services"
	"github.com/scoutfm/scoutfm/internal/shared"
)

// Status is the lifecycle state of a job.
type Status int

const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
	StatusCancelled
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusCancelled:
		return "cancelled"
	case StatusError:
		return "error"
	default:
		return ""
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusError
}

// Params are the inputs of one job run.
type Params struct {
	Genres       []string `json:"genres"`
	MinFollowers int      `json:"min_followers"`
}

// LastItem is a snapshot of the most recently processed playlist, for UI hints.
type LastItem struct {
	Playlist string `json:"playlist"`
	Owner    string `json:"owner"`
	URL      string `json:"url"`
}

// Job holds the state of one asynchronous enrichment run.
//
// The job's own worker is the only writer of status, progress and results; the
// cancellation flag and the message queue are the two fields touched by
// outside callers and use thread-safe primitives.
type Job struct {
	ID      string
	Params  Params
	created time.Time

	cancelled atomic.Bool

	mu         sync.Mutex
	status     Status
	progress   int
	totalSteps int
	results    []models.PlaylistResult
	lastItem   *LastItem
	queue      []string
	finishedAt time.Time
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns the current progress counter and the total step count.
func (j *Job) Progress() (int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress, j.totalSteps
}

// Results returns a copy of the accumulated result list.
func (j *Job) Results() []models.PlaylistResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.PlaylistResult, len(j.results))
	copy(out, j.results)
	return out
}

// LastItem returns the most recently processed playlist snapshot, or nil.
func (j *Job) LastItem() *LastItem {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastItem
}

// Cancel sets the cancellation flag. The worker observes it at its loop
// checkpoints; in-flight network calls are not interrupted.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

// DrainLog removes and returns all queued log messages in producer order.
func (j *Job) DrainLog() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.queue) == 0 {
		return nil
	}
	out := j.queue
	j.queue = nil
	return out
}

// Record builds the archive summary of the job.
func (j *Job) Record() models.JobRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return models.JobRecord{
		ID:           j.ID,
		Status:       j.status.String(),
		Genres:       j.Params.Genres,
		MinFollowers: j.Params.MinFollowers,
		ResultCount:  len(j.results),
		CreatedAt:    j.created,
		FinishedAt:   j.finishedAt,
	}
}

func (j *Job) pushLog(msg string) {
	j.mu.Lock()
	j.queue = append(j.queue, msg)
	j.mu.Unlock()
}

func (j *Job) start(totalSteps int) {
	j.mu.Lock()
	if !j.status.Terminal() {
		j.status = StatusRunning
		j.progress = 0
		j.totalSteps = totalSteps
	}
	j.mu.Unlock()
}

// finish moves the job into a terminal status exactly once; later calls are
// ignored so a terminal state is never reverted.
func (j *Job) finish(s Status) {
	j.mu.Lock()
	if !j.status.Terminal() {
		j.status = s
		j.finishedAt = time.Now()
	}
	j.mu.Unlock()
}

func (j *Job) incrementProgress() {
	j.mu.Lock()
	j.progress++
	j.mu.Unlock()
}

func (j *Job) appendResult(r models.PlaylistResult) {
	j.mu.Lock()
	if !j.status.Terminal() {
		j.results = append(j.results, r)
		j.lastItem = &LastItem{Playlist: r.PlaylistName, Owner: r.OwnerName, URL: r.PlaylistURL}
	}
	j.mu.Unlock()
}

// Archiver persists finished jobs. Implementations live in the repositories
// package; a nil Archiver disables archiving.
type Archiver interface {
	SaveJob(record models.JobRecord, results []models.PlaylistResult) error
}

// EngineOpts contains the collaborators and bounds for a ScoutEngine.
type EngineOpts struct {
	Catalog   services.Catalog
	Discovery services.Discovery
	Fetcher   *fetch.Fetcher
	Archive   Archiver
	Logger    *log.Logger
	MaxPages  int
}

// ScoutEngine orchestrates catalog search, web discovery and contact
// extraction into cancellable, progress-reporting jobs.
type ScoutEngine struct {
	catalog   services.Catalog
	discovery services.Discovery
	fetcher   *fetch.Fetcher
	archive   Archiver
	logger    *log.Logger
	maxPages  int
	idleWait  time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewScoutEngine creates a job engine.
func NewScoutEngine(opts EngineOpts) *ScoutEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}
	return &ScoutEngine{
		catalog:   opts.Catalog,
		discovery: opts.Discovery,
		fetcher:   opts.Fetcher,
		archive:   opts.Archive,
		logger:    opts.Logger,
		maxPages:  opts.MaxPages,
		idleWait:  eventPollInterval,
		jobs:      make(map[string]*Job),
	}
}

// Submit validates params, registers a queued job and starts its worker.
// It returns the job identifier immediately.
func (e *ScoutEngine) Submit(params Params) (string, error) {
	if len(params.Genres) == 0 {
		return "", fmt.Errorf("%w: genres required", shared.ErrInvalidInput)
	}
	for _, g := range params.Genres {
		if strings.TrimSpace(g) == "" {
			return "", fmt.Errorf("%w: empty genre", shared.ErrInvalidInput)
		}
	}
	if params.MinFollowers < 0 {
		params.MinFollowers = 0
	}

	job := &Job{
		ID:      shared.GenerateJobID(),
		Params:  params,
		created: time.Now(),
		status:  StatusQueued,
	}

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()

	e.logger.Info("job submitted", "job", job.ID, "genres", len(params.Genres), "min_followers", params.MinFollowers)
	go e.run(context.Background(), job)

	return job.ID, nil
}

// Job looks up a job by identifier.
func (e *ScoutEngine) Job(id string) (*Job, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	job, ok := e.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return job, nil
}

// Cancel requests cancellation of the identified job.
func (e *ScoutEngine) Cancel(id string) error {
	job, err := e.Job(id)
	if err != nil {
		return err
	}
	job.Cancel()
	e.logger.Info("job cancellation requested", "job", id)
	return nil
}
