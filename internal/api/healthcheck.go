package api

import "net/http"

func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Ping(r.Context()); err != nil {
		s.logger.Warn("healthcheck failed", "error", err)
		s.writeJson(w, http.StatusServiceUnavailable, apiResponse{ //nolint:errcheck
			Success: false,
			Message: "Storage unavailable",
		}, nil)
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Message: "OK",
	}, nil)
}
