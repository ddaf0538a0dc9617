package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

const defaultOperationsLimit = 50

type connectRequest struct {
	ForcePermissions bool `json:"force_permissions"`
}

type addPoolRequest struct {
	PoolAddress string `json:"pool_address"`
}

// weightRequest: a null weight unsets it.
type weightRequest struct {
	Weight *float64 `json:"weight"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStateDTO(s.ctrl.Snapshot()))
}

func (s *Server) handlePools(w http.ResponseWriter, _ *http.Request) {
	pools := s.ctrl.AvailablePools()
	out := make([]poolDTO, len(pools))
	for i, p := range pools {
		out[i] = toPoolDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	s.respond(w, s.ctrl.Connect(r.Context(), req.ForcePermissions))
}

func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Disconnect()
	s.respond(w, nil)
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.RefreshCatalog(r.Context()))
}

func (s *Server) handleAddPool(w http.ResponseWriter, r *http.Request) {
	var req addPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PoolAddress == "" {
		writeError(w, http.StatusBadRequest, "pool_address is required")
		return
	}
	s.respond(w, s.ctrl.AddPool(req.PoolAddress))
}

func (s *Server) handleRemovePool(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.RemovePool(chi.URLParam(r, "pool")))
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respond(w, s.ctrl.SetWeight(chi.URLParam(r, "pool"), req.Weight))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, s.ctrl.Reset())
}

func (s *Server) handleEmulate(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.RequestEmulation(r.Context()))
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.RequestVariants(r.Context()))
}

func (s *Server) handleSelectVariant(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "invalid variant index")
		return
	}
	s.respond(w, s.ctrl.SelectVariant(contractContext(r), i))
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.OpenPosition(contractContext(r)))
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.Rebalance(contractContext(r)))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.ctrl.ClosePosition(contractContext(r)))
}

func (s *Server) handleNotices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.inbox.List())
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	if !s.inbox.Dismiss(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	limit := defaultOperationsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	ops, err := s.ctrl.RecentOperations(r.Context(), limit)
	if err != nil {
		slog.Error("reading journal", "err", err)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	out := make([]operationDTO, len(ops))
	for i, op := range ops {
		out[i] = toOperationDTO(op)
	}
	writeJSON(w, http.StatusOK, out)
}

// respond writes the fresh state on success or the mapped error.
func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("operation failed", "err", err)
		} else {
			slog.Debug("operation rejected", "status", status, "err", err)
		}
		writeJSON(w, status, errorDTO{Error: err.Error(), Kind: kindName(err)})
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(s.ctrl.Snapshot()))
}

// contractContext detaches contract calls from the request: once an
// operation is submitted it is awaited even if the client goes away.
func contractContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindPrecondition:
		return http.StatusConflict
	case domain.KindConnection:
		return http.StatusUnauthorized
	case domain.KindTransport, domain.KindContract:
		return http.StatusBadGateway
	}
	if errors.Is(err, domain.ErrStaleResult) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func kindName(err error) string {
	if k := domain.KindOf(err); k != 0 {
		return k.String()
	}
	if errors.Is(err, domain.ErrStaleResult) {
		return "stale"
	}
	return "internal"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorDTO{Error: message, Kind: "request"})
}
