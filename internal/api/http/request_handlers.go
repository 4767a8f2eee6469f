package httpapi

import (
	"net/http"
	"strconv"
)

type decisionRequest struct {
	Decision string `json:"decision"`
}

type decisionResponse struct {
	RequestID  int64  `json:"requestId"`
	Decision   string `json:"decision"`
	Recipients int    `json:"recipients"`
	Delivered  int    `json:"delivered"`
	Notice     string `json:"notice"`
}

// decide applies a moderation decision on behalf of the moderator named in X-Actor.
func (s *Server) decide(w http.ResponseWriter, r *http.Request) {
	requestID, err := parseIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid request id")
		return
	}
	actor, err := strconv.ParseInt(r.Header.Get("X-Actor"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "X-Actor must be a moderator id")
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	res, err := s.requestSvc.Decide(r.Context(), requestID, req.Decision, actor)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, decisionResponse{
		RequestID:  res.RequestID,
		Decision:   string(res.Decision),
		Recipients: res.Recipients,
		Delivered:  res.Delivered,
		Notice:     res.Notice,
	})
}
