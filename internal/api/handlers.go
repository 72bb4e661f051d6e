package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"go.uber.org/zap"
)

// ComputeRequest is the body of POST /v1/indicators.
type ComputeRequest struct {
	Bars []types.PriceBar `json:"bars"`
}

// SeriesResponse carries a computed series.
type SeriesResponse struct {
	Series []types.IndicatorSeries `json:"series"`
}

// SymbolsResponse lists the symbols of the bar source.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  errors.ErrorCode `json:"code"`
	Error string           `json:"error"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeDecodeFailed, "invalid request body", err))

		return
	}

	series, err := s.service.ComputeBars(req.Bars)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, SeriesResponse{Series: series})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.service.Symbols(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, SymbolsResponse{Symbols: symbols})
}

func (s *Server) handleSymbolIndicators(w http.ResponseWriter, r *http.Request) {
	q := datasource.BarQuery{Symbol: mux.Vars(r)["symbol"]}

	var err error

	if q.Start, err = parseTimeParam(r, "start"); err != nil {
		s.writeError(w, err)

		return
	}

	if q.End, err = parseTimeParam(r, "end"); err != nil {
		s.writeError(w, err)

		return
	}

	series, err := s.service.Run(r.Context(), q)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, SeriesResponse{Series: series})
}

// handleWebSocket recomputes the full series for every bar array a client sends.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("WebSocket read ended", zap.Error(err))
			}

			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var reply any

		var bars []types.PriceBar
		if err := json.Unmarshal(data, &bars); err != nil {
			reply = toErrorResponse(errors.Wrap(errors.ErrCodeDecodeFailed, "message must be a JSON array of bars", err))
		} else if series, err := s.service.ComputeBars(bars); err != nil {
			reply = toErrorResponse(err)
		} else {
			reply = SeriesResponse{Series: series}
		}

		payload, err := json.Marshal(reply)
		if err != nil {
			s.logger.Error("Failed to encode WebSocket reply", zap.Error(err))

			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("WebSocket write failed", zap.Error(err))

			return
		}
	}
}

func parseTimeParam(r *http.Request, name string) (optional.Option[time.Time], error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return optional.None[time.Time](), nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeBadRequest, err, "%s must be an RFC3339 timestamp", name)
	}

	return optional.Some(t), nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	code := errors.GetCode(err)

	switch {
	case code == errors.ErrCodeDataNotFound:
		return http.StatusNotFound
	case code >= 100 && code < 200,
		code == errors.ErrCodeBadRequest,
		code == errors.ErrCodeDecodeFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func toErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Code: errors.GetCode(err), Error: err.Error()}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, toErrorResponse(err))
}

// writeJSON encodes body before writing the header so an encoding failure
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(toErrorResponse(errors.Wrap(errors.ErrCodeUnknown, "failed to encode response", err)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}
