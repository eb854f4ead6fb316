// Package httpserver exposes the book service over JSON HTTP plus a
// websocket depth stream.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mimir/domain/book"
	"mimir/infra/metrics"
	"mimir/pkg/fixedpoint"
	"mimir/service"
)

var startTime = time.Now()

type Server struct {
	svc          *service.BookService
	conv         *fixedpoint.Converter
	defaultDepth int
	streamEvery  time.Duration
}

func New(svc *service.BookService, conv *fixedpoint.Converter, defaultDepth int, streamEvery time.Duration) *Server {
	return &Server{
		svc:          svc,
		conv:         conv,
		defaultDepth: defaultDepth,
		streamEvery:  streamEvery,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orders", s.ordersHandler)
	mux.HandleFunc("/api/v1/orders/", s.orderByIDHandler)
	mux.HandleFunc("/api/v1/depth", s.depthHandler)
	mux.HandleFunc("/api/v1/depth/stream", s.depthStreamHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/metricsz", s.metricsHandler)
	return mux
}

// -------------------------------
// POST /api/v1/orders
// -------------------------------

type orderRequest struct {
	OrderID uint64 `json:"order_id"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Qty     int64  `json:"qty"`
}

func (s *Server) ordersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var side book.Side
	switch strings.ToLower(req.Side) {
	case "bid", "buy":
		side = book.Bid
	case "ask", "sell":
		side = book.Ask
	default:
		writeError(w, http.StatusBadRequest, "side must be bid or ask")
		return
	}

	ticks, err := s.conv.ToTicks(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.Add(book.Order{
		ID:        req.OrderID,
		Side:      side,
		Price:     ticks,
		Qty:       req.Qty,
		Timestamp: time.Now().UnixNano(),
	}); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"request_id": uuid.NewString(),
		"order_id":   req.OrderID,
		"status":     "resting",
		"seq":        s.svc.Seq(),
	})
}

// -------------------------------
// DELETE/PATCH /api/v1/orders/{id}
// -------------------------------

type amendRequest struct {
	Price string `json:"price"`
	Qty   int64  `json:"qty"`
}

func (s *Server) orderByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(pathParam(r.URL.Path), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := s.svc.Cancel(id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"request_id": uuid.NewString(),
			"order_id":   id,
			"status":     "cancelled",
		})

	case http.MethodPatch:
		var req amendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		ticks, err := s.conv.ToTicks(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.svc.Amend(id, ticks, req.Qty); err != nil {
			writeServiceError(w, err)
			return
		}
		status := "amended"
		if req.Qty == 0 {
			status = "cancelled"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"request_id": uuid.NewString(),
			"order_id":   id,
			"status":     status,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// -------------------------------
// GET /api/v1/depth?depth=N
// -------------------------------

type depthLevel struct {
	Price  string `json:"price"`
	Qty    int64  `json:"qty"`
	Orders int    `json:"orders"`
}

type depthResponse struct {
	Seq  uint64       `json:"seq"`
	Bids []depthLevel `json:"bids"`
	Asks []depthLevel `json:"asks"`
}

func (s *Server) depthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.depthSnapshot(s.depthParam(r)))
}

func (s *Server) depthParam(r *http.Request) int {
	depth := s.defaultDepth
	if ds := r.URL.Query().Get("depth"); ds != "" {
		if d, err := strconv.Atoi(ds); err == nil && d >= 0 {
			depth = d
		}
	}
	return depth
}

func (s *Server) depthSnapshot(depth int) depthResponse {
	bids, asks := s.svc.Depth(depth)
	return depthResponse{
		Seq:  s.svc.Seq(),
		Bids: s.toDepthLevels(bids),
		Asks: s.toDepthLevels(asks),
	}
}

func (s *Server) toDepthLevels(levels []book.Level) []depthLevel {
	out := make([]depthLevel, len(levels))
	for i, lvl := range levels {
		out[i] = depthLevel{
			Price:  s.conv.FromTicks(lvl.Price),
			Qty:    lvl.Qty,
			Orders: lvl.Orders,
		}
	}
	return out
}

// -------------------------------
// health & metrics
// -------------------------------

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime_sec": int64(time.Since(startTime).Seconds()),
		"resting":    s.svc.Resting(),
		"seq":        s.svc.Seq(),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot())
}

// ----------------- helpers -----------------

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, book.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, book.ErrAllocationExhausted):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func pathParam(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return parts[len(parts)-1]
}
