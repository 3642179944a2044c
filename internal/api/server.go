// Package api exposes the assistant over HTTP: conversation turns, audio
// transcription and synthesis, and submission recording.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/praja-labs/nivaran/internal/engine"
	"github.com/praja-labs/nivaran/internal/events"
	"github.com/praja-labs/nivaran/internal/i18n"
	"github.com/praja-labs/nivaran/internal/openai"
	"github.com/praja-labs/nivaran/internal/session"
	"github.com/praja-labs/nivaran/internal/store"
)

const maxAudioUpload = 10 << 20 // 10 MiB

type Server struct {
	router *chi.Mux
	port   int

	host      *session.Host
	llm       *openai.Client
	store     *store.Store
	publisher *events.Publisher

	transcribeModel string
	ttsModel        string
	ttsDir          string
	logger          *slog.Logger
}

type Options struct {
	Port            int
	TranscribeModel string
	TTSModel        string
	TTSDir          string
}

func NewServer(host *session.Host, llm *openai.Client, st *store.Store, pub *events.Publisher, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	ttsDir := opts.TTSDir
	if ttsDir == "" {
		ttsDir = filepath.Join(os.TempDir(), "nivaran-tts")
	}

	s := &Server{
		router:          router,
		port:            opts.Port,
		host:            host,
		llm:             llm,
		store:           st,
		publisher:       pub,
		transcribeModel: opts.TranscribeModel,
		ttsModel:        opts.TTSModel,
		ttsDir:          ttsDir,
		logger:          logger,
	}

	router.Get("/health", s.health)
	router.Post("/api/v1/chat/init", s.initChat)
	router.Post("/api/v1/chat/message", s.message)
	router.Post("/api/v1/chat/reset", s.resetChat)
	router.Post("/api/v1/transcribe", s.transcribe)
	router.Get("/api/v1/tts/{file}", s.ttsAudio)
	router.Post("/api/v1/grievances", s.recordGrievance)
	router.Get("/api/v1/grievances/recent", s.recentGrievances)

	return s
}

// Router exposes the handler for tests and for embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type initRequest struct {
	Language string `json:"language"`
	Speak    bool   `json:"speak"`
}

type initResponse struct {
	ConversationID string      `json:"conversation_id"`
	Reply          engine.Turn `json:"reply"`
	TTSURL         string      `json:"tts_url,omitempty"`
}

func (s *Server) initChat(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id, turn := s.host.Start(req.Language)
	resp := initResponse{ConversationID: id, Reply: turn}
	if req.Speak {
		if url, err := s.synthesize(r, turn.Text, turn.Language); err != nil {
			s.logger.Warn("tts synthesis failed", "error", err)
		} else {
			resp.TTSURL = url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type resetRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (s *Server) resetChat(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	turn, err := s.host.Reset(req.ConversationID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, initResponse{ConversationID: req.ConversationID, Reply: turn})
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Language       string `json:"language"`
	Speak          bool   `json:"speak"`
}

type messageResponse struct {
	Reply  engine.Turn `json:"reply"`
	TTSURL string      `json:"tts_url,omitempty"`
}

func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	turn, err := s.host.Turn(r.Context(), req.ConversationID, req.Message, req.Language)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := messageResponse{Reply: turn}
	if req.Speak {
		// Synthesis failure degrades to a text-only reply.
		if url, err := s.synthesize(r, turn.Text, turn.Language); err != nil {
			s.logger.Warn("tts synthesis failed", "error", err)
		} else {
			resp.TTSURL = url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) synthesize(r *http.Request, text, langCode string) (string, error) {
	if text == "" {
		return "", errors.New("nothing to synthesize")
	}
	audio, err := s.llm.Speak(r.Context(), s.ttsModel, i18n.VoiceFor(langCode), text, i18n.TTSInstructionFor(langCode))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.ttsDir, 0o755); err != nil {
		return "", fmt.Errorf("create tts dir: %w", err)
	}
	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.ttsDir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("write tts file: %w", err)
	}
	return "/api/v1/tts/" + name, nil
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	langCode := ""
	if id := r.FormValue("conversation_id"); id != "" {
		if lang, err := s.host.Language(id); err == nil {
			langCode = i18n.Code(lang)
		}
	}

	text, err := s.llm.Transcribe(r.Context(), s.transcribeModel, file, header.Filename, langCode)
	if err != nil {
		s.logger.Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

var ttsFileRe = regexp.MustCompile(`^[0-9a-f-]{36}\.mp3$`)

func (s *Server) ttsAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if !ttsFileRe.MatchString(name) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	path := filepath.Join(s.ttsDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

type grievanceRequest struct {
	ConversationID string            `json:"conversation_id"`
	Category       string            `json:"category"`
	Language       string            `json:"language"`
	Fields         map[string]string `json:"fields"`
}

func (s *Server) recordGrievance(w http.ResponseWriter, r *http.Request) {
	var req grievanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Category == "" || len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "category and fields are required")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "submission storage not configured")
		return
	}

	sub := store.Submission{
		ID:         uuid.New(),
		Category:   req.Category,
		Language:   req.Language,
		Fields:     req.Fields,
		SubmitTime: time.Now().UTC(),
	}
	if err := s.store.SaveSubmission(r.Context(), sub); err != nil {
		s.logger.Error("save submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not record submission")
		return
	}

	if err := s.publisher.Publish(events.SubjectSubmitted, events.SubmittedEvent{
		SubmissionID:   sub.ID.String(),
		ConversationID: req.ConversationID,
		Category:       sub.Category,
		Language:       sub.Language,
		SubmittedAt:    sub.SubmitTime.Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("publish submitted event failed", "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": sub.ID.String()})
}

func (s *Server) recentGrievances(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "submission storage not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	subs, err := s.store.RecentSubmissions(r.Context(), limit)
	if err != nil {
		s.logger.Error("list submissions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list submissions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
