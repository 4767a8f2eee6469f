package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type nameRequest struct {
	Name string `json:"name"`
}

type segmentCreateRequest struct {
	FormatID int64 `json:"formatId"`
	LimitID  int64 `json:"limitId"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) listSegments(w http.ResponseWriter, r *http.Request) {
	items, err := s.adminSvc.Segments(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) createSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	id, err := s.adminSvc.CreateSegment(r.Context(), req.FormatID, req.LimitID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": id, "formatId": req.FormatID, "limitId": req.LimitID})
}

func (s *Server) createFormat(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, s.adminSvc.AddFormat)
}

func (s *Server) createLimit(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, s.adminSvc.AddLimit)
}

func (s *Server) createNamed(w http.ResponseWriter, r *http.Request, create func(context.Context, string) (int64, error)) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "name is required")
		return
	}
	id, err := create(r.Context(), name)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "name": name})
}

func (s *Server) linkLimit(w http.ResponseWriter, r *http.Request) {
	formatID, err := parseIDParam(r, "formatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid format id")
		return
	}
	limitID, err := parseIDParam(r, "limitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid limit id")
		return
	}
	if err := s.adminSvc.LinkLimit(r.Context(), formatID, limitID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	ident, err := parseIDParam(r, "ident")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid player id")
		return
	}
	info, err := s.adminSvc.PlayerInfo(r.Context(), ident)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) banPlayer(w http.ResponseWriter, r *http.Request) {
	ident, err := parseIDParam(r, "ident")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid player id")
		return
	}
	p, err := s.adminSvc.Ban(r.Context(), ident)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) unbanPlayer(w http.ResponseWriter, r *http.Request) {
	ident, err := parseIDParam(r, "ident")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid player id")
		return
	}
	p, err := s.adminSvc.Unban(r.Context(), ident)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) setNickname(w http.ResponseWriter, r *http.Request) {
	ident, err := parseIDParam(r, "ident")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid player id")
		return
	}
	var req nicknameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	p, err := s.adminSvc.SetNickname(r.Context(), ident, req.Nickname)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) assignMember(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, s.adminSvc.Assign)
}

func (s *Server) unassignMember(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, s.adminSvc.Unassign)
}

func (s *Server) membership(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, int64) error) {
	segmentID, err := parseIDParam(r, "segmentId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid segment id")
		return
	}
	ident, err := parseIDParam(r, "ident")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid player id")
		return
	}
	if err := apply(r.Context(), ident, segmentID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
