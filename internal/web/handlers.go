package web

import (
	"errors"
	"net/http"
	"time"

	"dayboard/internal/analytics"
	appLog "dayboard/internal/log"
	"dayboard/internal/model"
	"dayboard/internal/summarize"
	"dayboard/internal/tasks"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventDTO is a JSON-friendly view of a calendar event.
type eventDTO struct {
	ID          string             `json:"id"`
	SourceID    string             `json:"source_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	AllDay      bool               `json:"all_day"`
	Start       time.Time          `json:"start"`
	End         *time.Time         `json:"end,omitempty"`
	Hours       float64            `json:"hours"`
	Category    analytics.Category `json:"category"`
	Color       string             `json:"color"`
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events          []eventDTO `json:"events"`
	TruncatedUIDs   []string   `json:"truncated_uids,omitempty"`
	RangeStart      time.Time  `json:"range_start"`
	RangeEnd        time.Time  `json:"range_end"`
	FetchedAt       time.Time  `json:"fetched_at"`
	DisplayTimeZone string     `json:"display_timezone"`
	SourceErrors    int        `json:"source_errors"`
}

// handleEvents returns the current snapshot. Before the first successful
// refresh the event list is empty.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	snap, _ := s.deps.Snapshots.Snapshot()

	dtos := make([]eventDTO, 0, len(snap.Events))
	for _, ev := range snap.Events {
		cat := analytics.Categorize(ev.Title)
		dto := eventDTO{
			ID:          ev.ID,
			SourceID:    ev.SourceID,
			Title:       ev.DisplayTitle(),
			Description: ev.Description,
			Location:    ev.Location,
			AllDay:      ev.Start.IsAllDay(),
			Start:       ev.Start.Time(),
			Hours:       ev.DurationHours(),
			Category:    cat,
			Color:       analytics.CategoryColor(cat),
		}
		if !ev.End.IsZero() {
			end := ev.End.Time()
			dto.End = &end
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          dtos,
		TruncatedUIDs:   snap.Truncated,
		RangeStart:      snap.RangeStart,
		RangeEnd:        snap.RangeEnd,
		FetchedAt:       snap.FetchedAt,
		DisplayTimeZone: s.loc.String(),
		SourceErrors:    len(snap.Errors),
	})
}

// handleAnalytics runs the analytics pipeline over the current snapshot
// and task list.
//
// GET /api/analytics?day=YYYY-MM-DD
//   - day: break-suggestion day in the configured timezone (default today)
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	now := s.deps.Now().In(s.loc)
	day := now
	if v := r.URL.Query().Get("day"); v != "" {
		d, err := time.ParseInLocation(model.DateLayout, v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = d
	}

	snap, _ := s.deps.Snapshots.Snapshot()
	version := s.deps.Tasks.Version()
	key := reportKey{
		fetchedAt:    snap.FetchedAt,
		tasksVersion: version,
		day:          day.Format(model.DateLayout),
		minute:       now.Truncate(time.Minute),
	}
	if report, ok := s.reports.Get(key); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report := analytics.Run(analytics.Snapshot{
		Events: snap.Events,
		Tasks:  s.deps.Tasks.List(),
		Now:    now,
		Day:    day,
	}, s.analyticsOptions())
	s.deps.Metrics.AnalyticsRun()
	s.reports.Add(key, report)

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) analyticsOptions() analytics.Options {
	start, end := s.cfg.WorkdayBounds()
	return analytics.Options{
		MinGap: time.Duration(s.cfg.Analytics.MinGapMinutes) * time.Minute,
		Workday: analytics.Workday{
			Start:    start,
			End:      end,
			MinBreak: time.Duration(s.cfg.Analytics.MinBreakMinutes) * time.Minute,
		},
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Snapshots.Status())
}

// handleRefresh triggers an immediate calendar refresh.
//
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Snapshots.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Snapshots.Status())
}

type tasksResponse struct {
	Tasks   []model.Task          `json:"tasks"`
	Summary analytics.TaskSummary `json:"summary"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	list := s.deps.Tasks.List()
	writeJSON(w, http.StatusOK, tasksResponse{
		Tasks:   list,
		Summary: analytics.SummarizeTasks(list, s.deps.Now().In(s.loc)),
	})
}

type addTaskRequest struct {
	Text    string `json:"text"`
	DueDate string `json:"due_date"`
}

// POST /api/tasks {"text": "...", "due_date": "2025-03-12"}
func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	task, err := s.deps.Tasks.Add(req.Text, req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.Tasks.Complete(r.PathValue("id"))
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleTaskNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	task, err := s.deps.Tasks.SetNote(r.PathValue("id"), req.Note)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Tasks.Delete(r.PathValue("id")); err != nil {
		writeTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	qs, err := s.deps.Quotes.Quotes(r.Context())
	if err != nil {
		appLog.Error("api quotes failed", err)
		writeError(w, http.StatusBadGateway, "quotes unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": qs})
}

type summarizeRequest struct {
	Text string `json:"text"`
}

// POST /api/summarize {"text": "..."}
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	summary, err := s.deps.Summarizer.Summarize(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
	case errors.Is(err, summarize.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, summarize.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "summarizer is not configured")
	default:
		appLog.Error("api summarize failed", err)
		writeError(w, http.StatusBadGateway, "summarizer request failed")
	}
}
