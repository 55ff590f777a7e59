// Package booking exposes slot search, booking and job management over HTTP.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/logger"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// Scheduler is the part of the engine the handlers drive.
type Scheduler interface {
	FindSlots(ctx context.Context, req engine.Request) (engine.Result, error)
	Confirm(ctx context.Context, req engine.Request, slot model.Slot, parkedID int64) (int64, string, error)
	Reschedule(ctx context.Context, parkedID int64, slot model.Slot) (int64, string, error)
	ParkJob(ctx context.Context, id int64) error
	CancelJob(ctx context.Context, id int64) error
	UpdateTruckSchedule(ctx context.Context, truckName string, hours model.WeekHours) error
	IdealDays(ctx context.Context, rampID int64, year int) ([]time.Time, error)
}

// JobLister reads jobs for the listing endpoint.
type JobLister interface {
	ListJobs(ctx context.Context, f store.JobFilter) ([]model.Job, error)
}

// SearchRequest is the wire form of a slot search.
type SearchRequest struct {
	CustomerID      int64  `json:"customer_id"`
	BoatID          int64  `json:"boat_id"`
	Service         string `json:"service"`
	Date            string `json:"date"`
	RampID          int64  `json:"ramp_id,omitempty"`
	Suggestions     int    `json:"suggestions,omitempty"`
	ManagerOverride bool   `json:"manager_override,omitempty"`
	PreferredTruck  string `json:"preferred_truck,omitempty"`
	ForcePreferred  bool   `json:"force_preferred,omitempty"`
}

// Request converts the wire form into an engine request.
func (s SearchRequest) Request() (engine.Request, error) {
	svc, err := model.ParseService(s.Service)
	if err != nil {
		return engine.Request{}, fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
	}
	day, err := model.ParseDay(s.Date)
	if err != nil {
		return engine.Request{}, fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
	}
	return engine.Request{
		CustomerID:      s.CustomerID,
		BoatID:          s.BoatID,
		Service:         svc,
		RequestedDate:   day,
		RampID:          s.RampID,
		Suggestions:     s.Suggestions,
		ManagerOverride: s.ManagerOverride,
		PreferredTruck:  s.PreferredTruck,
		ForcePreferred:  s.ForcePreferred,
	}, nil
}

// BookRequest confirms one slot returned by a search.
type BookRequest struct {
	Request  SearchRequest `json:"request"`
	Slot     model.Slot    `json:"slot"`
	ParkedID int64         `json:"parked_id,omitempty"`
}

// BookResponse reports a committed job.
type BookResponse struct {
	JobID   int64  `json:"job_id"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error    string     `json:"error"`
	Conflict *model.Job `json:"conflict,omitempty"`
}

// Handler serves the booking API.
type Handler struct {
	sched Scheduler
	jobs  JobLister
	log   logger.Logger
	mux   *http.ServeMux
}

// NewHandler builds the router. jobs and log may be nil.
func NewHandler(sched Scheduler, jobs JobLister, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	h := &Handler{sched: sched, jobs: jobs, log: log, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /api/slots/search", h.search)
	h.mux.HandleFunc("POST /api/jobs", h.book)
	h.mux.HandleFunc("GET /api/jobs", h.list)
	h.mux.HandleFunc("POST /api/jobs/{id}/park", h.park)
	h.mux.HandleFunc("POST /api/jobs/{id}/reschedule", h.reschedule)
	h.mux.HandleFunc("DELETE /api/jobs/{id}", h.cancel)
	h.mux.HandleFunc("PUT /api/trucks/{name}/schedule", h.schedule)
	h.mux.HandleFunc("GET /api/ideal-days", h.idealDays)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var in SearchRequest
	if !decode(w, r, &in) {
		return
	}
	req, err := in.Request()
	if err != nil {
		h.fail(w, err)
		return
	}
	res, err := h.sched.FindSlots(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var in BookRequest
	if !decode(w, r, &in) {
		return
	}
	req, err := in.Request.Request()
	if err != nil {
		h.fail(w, err)
		return
	}
	id, msg, err := h.sched.Confirm(r.Context(), req, in.Slot, in.ParkedID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BookResponse{JobID: id, Message: msg})
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var slot model.Slot
	if !decode(w, r, &slot) {
		return
	}
	newID, msg, err := h.sched.Reschedule(r.Context(), id, slot)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BookResponse{JobID: newID, Message: msg})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		http.Error(w, "job listing unavailable", http.StatusNotImplemented)
		return
	}
	q := r.URL.Query()
	var f store.JobFilter
	var err error
	if s := q.Get("status"); s != "" {
		if f.Status, err = model.ParseJobStatus(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	for key, dst := range map[string]*int64{"boat_id": &f.BoatID, "truck_id": &f.TruckID} {
		if s := q.Get(key); s != "" {
			if *dst, err = strconv.ParseInt(s, 10, 64); err != nil {
				http.Error(w, "invalid "+key, http.StatusBadRequest)
				return
			}
		}
	}
	if s := q.Get("from"); s != "" {
		if f.From, err = model.ParseDay(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if s := q.Get("to"); s != "" {
		if f.To, err = model.ParseDay(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.To = f.To.Add(24*time.Hour - time.Second)
	}
	jobs, err := h.jobs.ListJobs(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) park(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.sched.ParkJob(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.sched.CancelJob(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var in map[string]string
	if !decode(w, r, &in) {
		return
	}
	hours, err := model.ParseWeekHours(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.sched.UpdateTruckSchedule(r.Context(), name, hours); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) idealDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rampID, err := strconv.ParseInt(q.Get("ramp"), 10, 64)
	if err != nil || rampID <= 0 {
		http.Error(w, "invalid ramp", http.StatusBadRequest)
		return
	}
	year := time.Now().UTC().Year()
	if s := q.Get("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
	}
	days, err := h.sched.IdealDays(r.Context(), rampID, year)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, model.DayKey(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// fail maps engine and store errors to HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	var cw *engine.ConflictWarning
	switch {
	case errors.As(err, &cw):
		status = http.StatusConflict
		resp.Conflict = &cw.Job
	case errors.Is(err, engine.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrSlotTaken), errors.Is(err, store.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrNoTrucks):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrTideUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("api error: %v", err)
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
