package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KNICEX/overheat-monitor/internal/schedule"
	"github.com/KNICEX/overheat-monitor/internal/service/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 对外暴露手动触发、最近一轮结果和 /metrics。
// 展示层(如有)只消费这些接口, 不在本服务内。
type Server struct {
	monitorSvc monitor.OverheatService
	runner     *schedule.IntervalRunner
	mux        *http.ServeMux
}

func NewServer(monitorSvc monitor.OverheatService, runner *schedule.IntervalRunner) *Server {
	s := &Server{
		monitorSvc: monitorSvc,
		runner:     runner,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/check", s.handleCheck)
	s.mux.HandleFunc("/api/last", s.handleLast)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleCheck 手动触发一轮检测, 同步返回本轮结果。
// 已有周期在执行时返回 409, 不并行执行。
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.runner.TryRun(r.Context()); err != nil {
		if errors.Is(err, schedule.ErrCycleInFlight) {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "cycle in flight"})
			return
		}
		slog.Error("manual check failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outcome, ok := s.monitorSvc.LastOutcome()
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	outcome, ok := s.monitorSvc.LastOutcome()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "no cycle has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
