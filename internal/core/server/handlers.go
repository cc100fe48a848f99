package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/store"
	"github.com/printlijst/printlijst/internal/sync"
	"github.com/printlijst/printlijst/internal/types"
)

// handleSyncRun returns the trigger handler for one sync kind. A run that is
// already in flight answers 409 so the caller can follow the live log stream
// instead of starting a second run.
func (s *Server) handleSyncRun(kind sync.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var summary *sync.Summary
		var err error
		switch kind {
		case sync.KindOrders:
			summary, err = s.syncer.RunOrderSync(r.Context())
		case sync.KindStatus:
			summary, err = s.syncer.RunStatusSync(r.Context())
		case sync.KindTags:
			summary, err = s.syncer.RunTagSync(r.Context())
		case sync.KindPriorities:
			summary, err = s.syncer.RunPrioritySync(r.Context())
		default:
			respondError(w, http.StatusNotFound, "unknown sync kind")
			return
		}

		switch {
		case errors.Is(err, types.ErrSyncAlreadyRunning):
			respondError(w, http.StatusConflict, "a sync of this kind is already running")
			return
		case errors.Is(err, types.ErrNoConditionRules):
			respondError(w, http.StatusBadRequest, "no active condition rules, nothing would match")
			return
		case err != nil:
			s.log.Error().Err(err).Str("kind", string(kind)).Msg("sync run failed")
			respondError(w, http.StatusInternalServerError, "sync run failed")
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handleListPrintJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListPrintJobs()
	if err != nil {
		s.log.Error().Err(err).Msg("listing print jobs failed")
		respondError(w, http.StatusInternalServerError, "listing print jobs failed")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetPrintJob(w http.ResponseWriter, r *http.Request) {
	id := types.JobID(chi.URLParam(r, "id"))
	job, err := s.store.PrintJobByID(id)
	if errors.Is(err, types.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "print job not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetching print job failed")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleStartPrintJob(w http.ResponseWriter, r *http.Request) {
	id := types.JobID(chi.URLParam(r, "id"))
	err := s.store.StartJob(id, time.Now().UTC())
	if s.respondJobActionError(w, err) {
		return
	}
	job, err := s.store.PrintJobByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetching print job failed")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleCompletePrintJob(w http.ResponseWriter, r *http.Request) {
	id := types.JobID(chi.URLParam(r, "id"))

	var body struct {
		CompletedBy string `json:"completed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.store.CompleteJob(id, strings.TrimSpace(body.CompletedBy), time.Now().UTC())
	if s.respondJobActionError(w, err) {
		return
	}
	job, err := s.store.PrintJobByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetching print job failed")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleMissingFile(w http.ResponseWriter, r *http.Request) {
	id := types.JobID(chi.URLParam(r, "id"))

	body := struct {
		Missing *bool `json:"missing"`
	}{}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	missing := true
	if body.Missing != nil {
		missing = *body.Missing
	}

	err := s.store.SetMissingFile(id, missing)
	if s.respondJobActionError(w, err) {
		return
	}
	job, err := s.store.PrintJobByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetching print job failed")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// respondJobActionError writes the error response for a job state change and
// reports whether one was written.
func (s *Server) respondJobActionError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, types.ErrJobNotFound):
		respondError(w, http.StatusNotFound, "print job not found")
	case errors.Is(err, types.ErrJobCompleted):
		respondError(w, http.StatusConflict, "print job is already completed")
	default:
		s.log.Error().Err(err).Msg("print job update failed")
		respondError(w, http.StatusInternalServerError, "print job update failed")
	}
	return true
}

// handleSourceStatuses samples one page of recent orders and reports the
// distinct statuses seen, most frequent first. The admin screens use it to
// offer status suggestions when editing condition rules.
func (s *Server) handleSourceStatuses(w http.ResponseWriter, r *http.Request) {
	orders, _, err := s.source.GetOrders(r.Context(), goedgepickt.OrderFilter{
		Page:    1,
		PerPage: 100,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("fetching orders for status sample failed")
		respondError(w, http.StatusBadGateway, "source unavailable")
		return
	}

	counts := make(map[string]int)
	for _, o := range orders {
		status := strings.ToLower(strings.TrimSpace(o.Status))
		if status == "" {
			continue
		}
		counts[status]++
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	result := make([]statusCount, 0, len(counts))
	for status, count := range counts {
		result = append(result, statusCount{Status: status, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Status < result[j].Status
	})
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSourceOrder(w http.ResponseWriter, r *http.Request) {
	orderUUID := chi.URLParam(r, "uuid")
	order, err := s.source.GetOrder(r.Context(), orderUUID)
	if errors.Is(err, types.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found at source")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "source unavailable")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleSourceTest(w http.ResponseWriter, r *http.Request) {
	if err := s.source.TestConnection(r.Context()); err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"connected": true})
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := strings.TrimSpace(body.APIKey)
	if key == "" {
		respondError(w, http.StatusBadRequest, "api_key is required")
		return
	}
	if err := s.store.SetSetting(store.SettingAPIKey, key); err != nil {
		s.log.Error().Err(err).Msg("storing api key failed")
		respondError(w, http.StatusInternalServerError, "storing api key failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// decodeBody reads a small JSON body. An empty body decodes to the zero
// value so optional request bodies stay optional.
func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		return errors.New("unreadable body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("body is not valid JSON")
	}
	return nil
}
