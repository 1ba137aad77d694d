package server

import (
	"encoding/json"
	"net/http"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to write json response")
	}
}

func (s *Service) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, detailResponse{Detail: detail})
}
