package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/formatter"
	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/repositories"
	"github.com/scoutfm/scoutfm/internal/shared"
	"github.com/scoutfm/scoutfm/internal/tasks"
)

// JobAPI exposes the job engine over HTTP. The archive is optional; when set,
// export and detail endpoints fall back to it for jobs no longer in memory.
type JobAPI struct {
	engine  *tasks.ScoutEngine
	archive *repositories.JobRepository
	logger  *log.Logger
}

// NewJobAPI creates the handler set for a job engine.
func NewJobAPI(engine *tasks.ScoutEngine, archive *repositories.JobRepository, logger *log.Logger) *JobAPI {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &JobAPI{engine: engine, archive: archive, logger: logger}
}

// NewRouter builds the service router. Start and cancel require the configured
// API key; the progress stream stays open because EventSource cannot send
// custom headers.
func NewRouter(api *JobAPI, cfg shared.ServerConfig) *BasicRouter {
	router := NewBasicRouter()
	router.Use(LogRequests(api.logger), AllowAllOrigins())

	requireKey := RequireAPIKey(cfg.APIKey)
	router.Handle(http.MethodPost, "/start", requireKey(http.HandlerFunc(api.Start)))
	router.Handle(http.MethodPost, "/cancel/{id}", requireKey(http.HandlerFunc(api.Cancel)))
	router.Handle(http.MethodGet, "/progress/{id}", http.HandlerFunc(api.Progress))
	router.Handle(http.MethodGet, "/export/csv/{id}", http.HandlerFunc(api.ExportCSV))
	router.Handle(http.MethodGet, "/export/html/{id}", http.HandlerFunc(api.ExportHTML))
	router.Handle(http.MethodGet, "/jobs", http.HandlerFunc(api.ListJobs))
	router.Handle(http.MethodGet, "/jobs/{id}", http.HandlerFunc(api.GetJob))

	return router
}

type startRequest struct {
	Genres       []string `json:"genres"`
	MinFollowers int      `json:"min_followers"`
}

// Start submits a new scout job and returns its identifier.
func (api *JobAPI) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := api.engine.Submit(tasks.Params{Genres: req.Genres, MinFollowers: req.MinFollowers})
	if err != nil {
		writeError(w, err)
		return
	}

	api.logger.Info("job submitted", "job", id, "genres", len(req.Genres))
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id})
}

// Cancel requests cancellation of a running job.
func (api *JobAPI) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := api.engine.Cancel(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Progress streams job events as Server-Sent Events until the job finishes or
// the client disconnects.
func (api *JobAPI) Progress(w http.ResponseWriter, r *http.Request) {
	events, err := api.engine.Events(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeFrame(w, tasks.Event{Type: "log", Msg: "connect"})
	flusher.Flush()

	for event := range events {
		writeFrame(w, event)
		flusher.Flush()
	}
}

func writeFrame(w http.ResponseWriter, event tasks.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// ExportCSV returns the flattened results of a job as a CSV download.
func (api *JobAPI) ExportCSV(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rows, err := api.rows(id)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := formatter.ExportToCSV(rows)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", id))
	w.Write(data)
}

// ExportHTML returns the flattened results of a job as an HTML table.
func (api *JobAPI) ExportHTML(w http.ResponseWriter, r *http.Request) {
	rows, err := api.rows(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(formatter.ExportToHTML(rows))
}

// rows flattens a job's results, consulting the archive when the job is not
// held in memory anymore.
func (api *JobAPI) rows(id string) ([]models.Row, error) {
	job, err := api.engine.Job(id)
	if err == nil {
		return formatter.Flatten(job.Results()), nil
	}
	if !errors.Is(err, shared.ErrJobNotFound) || api.archive == nil {
		return nil, err
	}

	results, err := api.archive.GetResults(id)
	if err != nil {
		return nil, err
	}
	return formatter.Flatten(results), nil
}

type jobStatus struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	TotalSteps  int             `json:"total_steps"`
	ResultCount int             `json:"result_count"`
	LastItem    *tasks.LastItem `json:"last_item,omitempty"`
}

// GetJob returns a snapshot of a job's state. Finished jobs that were evicted
// from memory are served from the archive.
func (api *JobAPI) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := api.engine.Job(id)
	if err == nil {
		done, total := job.Progress()
		writeJSON(w, http.StatusOK, jobStatus{
			ID:          job.ID,
			Status:      job.Status().String(),
			Progress:    done,
			TotalSteps:  total,
			ResultCount: len(job.Results()),
			LastItem:    job.LastItem(),
		})
		return
	}
	if !errors.Is(err, shared.ErrJobNotFound) || api.archive == nil {
		writeError(w, err)
		return
	}

	record, err := api.archive.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListJobs returns all archived job records.
func (api *JobAPI) ListJobs(w http.ResponseWriter, r *http.Request) {
	if api.archive == nil {
		writeJSON(w, http.StatusOK, []models.JobRecord{})
		return
	}

	records, err := api.archive.ListJobs()
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.JobRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrJobNotFound):
		http.Error(w, "job not found", http.StatusNotFound)
	case errors.Is(err, shared.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
