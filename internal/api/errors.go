package api

import (
	"errors"
	"net/http"

	"github.com/roach88/dynfilter/internal/fault"
)

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f *fault.Error
	if !errors.As(err, &f) {
		s.internalServerError(w, r, err)
		return
	}

	if fields := fault.Fields(err); fields != nil {
		// 422: the failure is tied to specific operation arguments
		s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
			Success: false,
			Message: "Invalid filter.",
			Metadata: map[string]any{
				"code":   f.Code,
				"fields": fields,
			},
		})
		return
	}

	s.writeError(w, r, http.StatusBadRequest, apiResponse{
		Success:  false,
		Message:  f.Message,
		Metadata: map[string]any{"code": f.Code},
	})
}

func (s *server) logError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.RequestURI, "remote-addr", r.RemoteAddr, "error", err)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, response apiResponse) {
	s.writeJson(w, status, response, nil) //nolint:errcheck
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(w, r, err)
	s.writeError(w, r, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
}
