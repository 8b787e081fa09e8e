package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hardstucks/podium/pkg/cache"
	"github.com/hardstucks/podium/pkg/errors"
	"github.com/hardstucks/podium/pkg/seating"
)

// solveRequest is the wire format of an assignment request.
type solveRequest struct {
	Participants []seating.Participant `json:"participants"`
}

// errorResponse is the wire format of all error replies.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSolve returns the handler computing assignments for one format.
//
// The handler is strict where the library is lenient: every participant must
// supply exactly one preference per role. The library's padding of short
// lists exists for programmatic callers; silently padding over the wire
// would hide client bugs.
func (s *Server) handleSolve(format seating.Format) http.HandlerFunc {
	spec := format.Spec()

	return func(w http.ResponseWriter, r *http.Request) {
		var req solveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request body"))
			return
		}
		if err := s.validateRequest(req, spec); err != nil {
			s.writeError(w, r, err)
			return
		}

		key := cache.Key("assignment", format.String(), req.Participants)
		if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
			s.logger.Debug("cache hit", "id", r.Context().Value(requestIDKey))
			writeRawJSON(w, http.StatusOK, data)
			return
		}

		var result *seating.Result
		err := s.pool.Do(r.Context(), func(ctx context.Context) error {
			var solveErr error
			result, solveErr = seating.Solve(ctx, req.Participants, seating.Options{
				Format: format,
				Logger: s.logger,
			})
			return solveErr
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		data, err := json.Marshal(result)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encoding response"))
			return
		}
		_ = s.cache.Set(r.Context(), key, data, cache.TTLAssignment)
		writeRawJSON(w, http.StatusOK, data)
	}
}

// validateRequest enforces the wire-level contract before any solving work.
func (s *Server) validateRequest(req solveRequest, spec seating.FormatSpec) error {
	if len(req.Participants) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "participants list must not be empty")
	}
	if len(req.Participants) > s.cfg.MaxParticipants {
		return errors.New(errors.ErrCodeInvalidInput,
			"%d participants exceeds the limit of %d", len(req.Participants), s.cfg.MaxParticipants)
	}
	for i, p := range req.Participants {
		if p.Name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "participant %d has no name", i)
		}
		if len(p.Preferences) != spec.RoleCount {
			return errors.New(errors.ErrCodeInvalidInput,
				"participant %q has %d preferences, expected %d", p.Name, len(p.Preferences), spec.RoleCount)
		}
		for _, pref := range p.Preferences {
			if pref < 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"participant %q has a negative preference", p.Name)
			}
		}
	}
	return nil
}

// writeError maps domain error codes to HTTP statuses: client mistakes and
// infeasible inputs are 400, solver deadline expiry is 504, everything else
// is a 500 with the details kept out of the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInfeasible:
		status = http.StatusBadRequest
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"id", r.Context().Value(requestIDKey),
			"error", err)
		// Internal details stay in the logs.
		msg = "internal error"
		code = errors.ErrCodeInternal
	}

	writeJSON(w, status, errorResponse{
		Error: msg,
		Code:  string(code),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
