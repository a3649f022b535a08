package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var input models.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add note request", zap.String("title", input.Title))
	note, err := s.engine.Ingest(r.Context(), &input)
	if err != nil {
		s.fail(w, r, "add note failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.engine.ListNotes(r.Context())
	if err != nil {
		s.fail(w, r, "list notes failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"count": len(notes), "notes": notes})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "note id must be an integer")
		return
	}
	s.logger.Debug("delete note request", zap.Int64("note_id", id))
	if err := s.engine.DeleteNote(r.Context(), id); err != nil {
		s.fail(w, r, "delete note failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("answer request", zap.String("question", q.Question))
	answer, err := s.engine.Answer(r.Context(), &q)
	if err != nil {
		s.fail(w, r, "answer failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("question", q.Question), zap.Int("limit", q.Limit))
	response, err := s.engine.Retrieve(r.Context(), &q)
	if err != nil {
		s.fail(w, r, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.engine.Store().Count(r.Context())
	if err != nil {
		s.fail(w, r, "status: count notes failed", err)
		return
	}
	resp := map[string]interface{}{
		"notes": count,
		"top_k": s.engine.TopK(),
	}
	if s.config != nil {
		resp["provider"] = map[string]string{
			"kind":             s.config.Provider.Kind,
			"base_url":         s.config.Provider.BaseURL,
			"embedding_model":  s.config.Provider.EmbeddingModel,
			"completion_model": s.config.Provider.CompletionModel,
		}
		resp["storage_driver"] = s.config.Storage.Driver
		if s.config.Storage.Driver == config.DriverSQLite {
			if n, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath); err == nil {
				resp["disk_usage_bytes"] = n
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// fail maps err to a status code by its kind and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	fields := []zap.Field{zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context()))}
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Debug(msg, fields...)
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrEmptyQuestion) || errors.Is(err, models.ErrEmptyNote) {
		return http.StatusBadRequest
	}
	kind, _ := models.KindOf(err)
	switch kind {
	case models.KindProvider, models.KindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
