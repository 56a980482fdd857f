package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/angeloszaimis/lbcore/internal/balancer"
	"github.com/angeloszaimis/lbcore/internal/request"
)

type LoadBalancerHandler struct {
	logger   *slog.Logger
	balancer *balancer.LoadBalancer
}

// routedResponse is the JSON view of a routed envelope. The selected
// server flattens to its id.
type routedResponse struct {
	RequestID        string `json:"request_id"`
	StatusCode       int    `json:"status_code"`
	Data             any    `json:"data"`
	SourceServer     string `json:"source_server,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

func New(logger *slog.Logger, lb *balancer.LoadBalancer) *LoadBalancerHandler {
	return &LoadBalancerHandler{
		logger:   logger,
		balancer: lb,
	}
}

func (h *LoadBalancerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host),
		slog.String("user_agent", r.UserAgent()))

	req := request.New(r.Method, r.URL.Path, clientIP, nil)

	res, err := h.balancer.RouteRequest(r.Context(), req)
	if err != nil {
		h.logger.Warn("Request not routed",
			slog.String("client", clientIP),
			slog.Any("err", err))
		http.Error(w, "Load balancer is shut down", http.StatusServiceUnavailable)
		return
	}

	if res.Server != nil {
		w.Header().Set("X-Backend-Server", res.Server.ID())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	view := routedResponse{
		RequestID:        res.RequestID,
		StatusCode:       res.StatusCode,
		Data:             res.Data,
		ProcessingTimeMs: res.ProcessingTime.Milliseconds(),
	}
	if res.Server != nil {
		view.SourceServer = res.Server.ID()
	}

	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("err", err))
	}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
