// HTTP surface for the smart proxy.
//
// DESIGN: A thin protocol endpoint over the two-tool surface:
//   - GET  /v1/tools:    the static discover/execute catalogue
//   - POST /v1/discover: {"queries": [...]} -> text-wrapped descriptor JSON
//   - POST /v1/execute:  {"toolId","method","args"} -> downstream result
//
// Auth, multi-tenancy and streaming live in the outer gateway; this
// endpoint only carries the tool protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/proxy"
	"github.com/toolmux/toolmux/internal/toolproto"
	"github.com/toolmux/toolmux/internal/utils"
)

// Server serves the smart proxy over HTTP.
type Server struct {
	cfg   *config.Config
	proxy *proxy.SmartProxy
	http  *http.Server
}

// New builds the server and its routes.
func New(cfg *config.Config, p *proxy.SmartProxy) *Server {
	s := &Server{cfg: cfg, proxy: p}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/tools", s.handleTools)
	mux.HandleFunc("POST /v1/discover", s.handleDiscover)
	mux.HandleFunc("POST /v1/execute", s.handleExecute)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("server: listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.proxy.StaticTools()})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	queriesResult := gjson.GetBytes(body, "queries")
	if !queriesResult.IsArray() {
		writeError(w, http.StatusBadRequest, errors.New("queries must be a string array"))
		return
	}
	var queries []string
	for _, q := range queriesResult.Array() {
		queries = append(queries, q.String())
	}

	text, err := s.proxy.Discover(r.Context(), queries)
	if err != nil {
		log.Error().Err(err).Msg("server: discover failed")
		writeError(w, http.StatusInternalServerError, errors.New("discover failed"))
		return
	}

	writeJSON(w, http.StatusOK, toolproto.TextResult(text))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	toolID := gjson.GetBytes(body, "toolId").String()
	method := gjson.GetBytes(body, "method").String()
	if toolID == "" || method == "" {
		writeError(w, http.StatusBadRequest, errors.New("toolId and method are required"))
		return
	}

	args := map[string]any{}
	if argsRaw := gjson.GetBytes(body, "args"); argsRaw.IsObject() {
		if err := json.Unmarshal([]byte(argsRaw.Raw), &args); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("args: %w", err))
			return
		}
	}

	started := time.Now()
	result, err := s.proxy.Execute(r.Context(), toolID, method, args)
	if err != nil {
		if errors.Is(err, proxy.ErrToolNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		// Downstream errors are opaque; pass the message through.
		log.Warn().Err(err).Str("tool_id", toolID).Str("method", method).
			Msg("server: downstream call failed")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	log.Debug().
		Str("tool_id", toolID).
		Str("method", method).
		Dur("duration", time.Since(started)).
		Msg("server: execute complete")

	writeJSON(w, http.StatusOK, result)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("request body is not valid JSON")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := utils.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
