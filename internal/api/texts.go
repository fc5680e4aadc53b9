package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camillebr/photosite/internal/notify"
)

type putTextRequest struct {
	Page    string `json:"page,omitempty"`
	Content string `json:"content"`
}

func (s *Server) getText(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	text, err := s.texts.GetBySection(r.Context(), section)
	if err != nil {
		s.logger.Error("get text failed", zap.String("section", section), zap.Error(err))
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}
	if text == nil {
		writeError(w, http.StatusNotFound, "no text for section")
		return
	}
	writeJSON(w, http.StatusOK, text)
}

func (s *Server) listTexts(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	texts, err := s.texts.ListByPage(r.Context(), page)
	if err != nil {
		s.logger.Error("list texts failed", zap.String("page", page), zap.Error(err))
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, texts)
}

func (s *Server) putText(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")

	var req putTextRequest
	if err := readJSON(r, &req, s.cfg.MaxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Empty content is a legitimate edit: it clears the text block.
	if err := s.texts.Upsert(r.Context(), section, req.Page, req.Content); err != nil {
		s.logger.Error("upsert text failed", zap.String("section", section), zap.Error(err))
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}
	s.notifyText(r, notify.KindTextUpdated, section)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) deleteText(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if err := s.texts.DeleteBySection(r.Context(), section); err != nil {
		s.logger.Error("delete text failed", zap.String("section", section), zap.Error(err))
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}
	s.notifyText(r, notify.KindTextDeleted, section)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// notifyText publishes a best-effort change event; failures are logged only.
func (s *Server) notifyText(r *http.Request, kind, section string) {
	if _, err := s.publisher.Publish(r.Context(), notify.Event{Kind: kind, Section: section}); err != nil {
		s.logger.Warn("publish text event failed", zap.String("section", section), zap.Error(err))
	}
}
