package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashishsumanth1/Resume-Council/internal/council"
	"github.com/ashishsumanth1/Resume-Council/internal/export"
	"github.com/ashishsumanth1/Resume-Council/internal/packs"
	"github.com/ashishsumanth1/Resume-Council/internal/store"
)

type runRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	MasterProfile  string `json:"master_profile"`
	ProfileID      string `json:"profile_id" validate:"omitempty,uuid"`
	CompanyDetails string `json:"company_details"`
	UsePeerRanking *bool  `json:"use_peer_ranking"`
}

type runResponse struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Title     string            `json:"title"`
	Result    council.RunResult `json:"result"`
	Docx      export.Document   `json:"docx"`
}

// resolveRunInput validates the request and resolves profile_id into the
// master profile text. The full raw profile is preferred as truth source.
func (s *Server) resolveRunInput(r *http.Request, req *runRequest) (council.RunInput, int, error) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return council.RunInput{}, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.validate.Struct(req); err != nil {
		return council.RunInput{}, http.StatusBadRequest, err
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return council.RunInput{}, http.StatusBadRequest, fmt.Errorf("job_description is required")
	}

	masterProfile := strings.TrimSpace(req.MasterProfile)
	if req.ProfileID != "" {
		id, err := uuid.Parse(req.ProfileID)
		if err != nil {
			return council.RunInput{}, http.StatusBadRequest, fmt.Errorf("invalid profile_id")
		}
		profile, err := s.store.GetProfile(r.Context(), id)
		if err != nil {
			return council.RunInput{}, http.StatusInternalServerError, err
		}
		if profile == nil {
			return council.RunInput{}, http.StatusNotFound, fmt.Errorf("profile_id not found")
		}
		masterProfile = strings.TrimSpace(profile.RawText)
		if masterProfile == "" {
			masterProfile = strings.TrimSpace(profile.CompactText)
		}
	}
	if masterProfile == "" {
		return council.RunInput{}, http.StatusBadRequest, fmt.Errorf("master_profile or profile_id is required")
	}

	return council.RunInput{
		JobDescription: req.JobDescription,
		MasterProfile:  masterProfile,
		CompanyDetails: req.CompanyDetails,
		UsePeerRanking: req.UsePeerRanking,
	}, 0, nil
}

// persistRun exports the final resume and stores the completed run.
func (s *Server) persistRun(r *http.Request, input council.RunInput, req *runRequest, result *council.RunResult) (*runResponse, error) {
	doc, err := export.FromMarkdown(result.Stage3.Response)
	if err != nil {
		return nil, fmt.Errorf("docx export: %w", err)
	}

	record, err := s.store.SaveRun(r.Context(), store.RunInputs{
		JobDescription: input.JobDescription,
		MasterProfile:  input.MasterProfile,
		CompanyDetails: input.CompanyDetails,
		UsePeerRanking: req.UsePeerRanking,
	}, result)
	if err != nil {
		return nil, err
	}

	return &runResponse{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Title:     record.Title,
		Result:    record.Result,
		Docx:      doc,
	}, nil
}

// handleRun executes the full pipeline synchronously and persists the
// result on success.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	input, status, err := s.resolveRunInput(r, &req)
	if err != nil {
		s.errorResponse(w, status, err.Error())
		return
	}

	result, err := s.runner.Run(r.Context(), input)
	if err != nil {
		s.errorResponse(w, runErrorStatus(err), err.Error())
		return
	}

	resp, err := s.persistRun(r, input, &req, result)
	if err != nil {
		s.log.Error().Err(err).Msg("persisting run")
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRunStream executes the pipeline, streaming per-stage events before
// the final record.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	input, status, err := s.resolveRunInput(r, &req)
	if err != nil {
		s.errorResponse(w, status, err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.runner.RunWithProgress(r.Context(), input, func(stage string, payload any) {
		sse.WriteEvent(stage, payload) //nolint:errcheck // client may have gone away
	})
	if err != nil {
		sse.WriteError(err.Error())
		return
	}

	resp, err := s.persistRun(r, input, &req, result)
	if err != nil {
		s.log.Error().Err(err).Msg("persisting run")
		sse.WriteError(err.Error())
		return
	}
	sse.WriteEvent("complete", resp) //nolint:errcheck
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []store.RunSummary{}
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid resume id")
		return
	}
	record, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.errorResponse(w, http.StatusNotFound, "Resume run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

// handleResumeDocx re-exports a stored run's final resume as a download.
func (s *Server) handleResumeDocx(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid resume id")
		return
	}
	record, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.errorResponse(w, http.StatusNotFound, "Resume run not found")
		return
	}

	raw, err := export.Bytes(record.Result.Stage3.Response)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		s.log.Error().Err(err).Msg("writing docx")
	}
}

type createProfileRequest struct {
	Name    string `json:"name"`
	RawText string `json:"raw_text" validate:"required"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		s.errorResponse(w, http.StatusBadRequest, "raw_text is required")
		return
	}

	compact := packs.BuildProfilePack(req.RawText, s.cfg.ProfilePackMaxChars)
	profile, err := s.store.CreateProfile(r.Context(), req.Name, req.RawText, compact)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":         profile.ID,
		"name":       profile.Name,
		"created_at": profile.CreatedAt,
	})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []store.Profile{}
	}
	s.jsonResponse(w, http.StatusOK, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profile == nil {
		s.errorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	deleted, err := s.store.DeleteProfile(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		s.errorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
