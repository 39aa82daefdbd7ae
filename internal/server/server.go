// Package server exposes transcribe and summarize over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/pipeline"
	"podcast-digest-go/internal/players"
	"podcast-digest-go/internal/processor"
	"podcast-digest-go/internal/summarizer"
)

type Runner interface {
	Transcribe(ctx context.Context, url string) (pipeline.Result, error)
	Summarize(ctx context.Context, transcript, date, title string) (string, error)
}

type Processor interface {
	Process(ctx context.Context, url string) (processor.Result, error)
}

type Deps struct {
	Runner    Runner
	Processor Processor
	// Players is optional; /players answers 404 without it.
	Players players.Source
}

type Server struct {
	deps Deps
	log  *logger.Logger
}

func New(deps Deps, log *logger.Logger) *Server {
	return &Server{deps: deps, log: log.Component("server")}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("POST /transcribe", s.transcribe)
	mux.HandleFunc("POST /summarize", s.summarize)
	mux.HandleFunc("POST /process", s.process)
	mux.HandleFunc("GET /players", s.players)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

type transcribeRequest struct {
	URL string `json:"url"`
}

type transcribeResponse struct {
	RunID      string `json:"run_id"`
	Transcript string `json:"transcript"`
	Date       string `json:"date"`
	Title      string `json:"title"`
	Warning    string `json:"warning,omitempty"`
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "transcribe")

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		reqLog.Warn("missing url")
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}
	reqLog = reqLog.WithField("url", req.URL)
	reqLog.Info("transcribe request received")

	start := time.Now()
	res, err := s.deps.Runner.Transcribe(r.Context(), req.URL)
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("transcription failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	out := transcribeResponse{RunID: res.RunID, Transcript: res.Transcript, Date: res.Date, Title: res.Title}
	if res.TranscriptionErr != nil {
		out.Warning = res.TranscriptionErr.Error()
	}
	reqLog.Info("transcription finished")
	writeJSON(w, http.StatusOK, out)
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "summarize")

	var req summarizer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	summary, err := s.deps.Runner.Summarize(r.Context(), req.Transcript, req.Date, req.Title)
	switch {
	case errors.Is(err, summarizer.ErrEmptyTranscript):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		reqLog.WithField("error", err.Error()).Error("summarize failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "process")
	if s.deps.Processor == nil {
		http.NotFound(w, r)
		return
	}

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	res, err := s.deps.Processor.Process(r.Context(), req.URL)
	reqLog.WithField("url", req.URL).WithField("duration_ms", res.DurationMs).Info("processor finished")
	status := http.StatusOK
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("processor returned error")
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (s *Server) players(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "players")
	if s.deps.Players == nil {
		http.NotFound(w, r)
		return
	}

	season := 0
	if v := r.URL.Query().Get("season"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "season must be a year")
			return
		}
		season = n
	}

	list, err := s.deps.Players.List(r.Context(), season)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("error fetching player data")
		list = []players.Player{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
