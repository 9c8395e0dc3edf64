package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/questions"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// CreateInterviewRequest is the request body for POST /interviews. Either a
// description or a posting URL must be provided.
type CreateInterviewRequest struct {
	Position    string `json:"position" validate:"required"`
	Description string `json:"description"`
	PostingURL  string `json:"posting_url"`
	TechStack   string `json:"tech_stack" validate:"required"`
	Experience  int    `json:"experience" validate:"gte=0,lte=50"`
	Count       int    `json:"count" validate:"gte=0,lte=20"`
}

// SaveAnswerRequest is the request body for POST /answers.
type SaveAnswerRequest struct {
	InterviewID   *uuid.UUID                 `json:"interview_id,omitempty"`
	Question      string                     `json:"question" validate:"required"`
	CorrectAnswer string                     `json:"correct_answer"`
	UserAnswer    string                     `json:"user_answer" validate:"required,min=30"`
	Feedback      string                     `json:"feedback"`
	Rating        int                        `json:"rating" validate:"gte=0,lte=10"`
	VoiceAnalysis *types.VoiceAnalysisResult `json:"voice_analysis,omitempty"`
}

// SaveAnswerResponse is the response for POST /answers. AlreadyAnswered is
// informational: a duplicate save succeeds without writing.
type SaveAnswerResponse struct {
	Answer          types.UserAnswer `json:"answer"`
	AlreadyAnswered bool             `json:"already_answered"`
}

// handleCreateInterview generates a question set and stores the interview.
func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	description := req.Description
	if description == "" && req.PostingURL != "" {
		text, err := questions.FetchPostingText(r.Context(), req.PostingURL)
		if err != nil {
			s.log.Warn().Err(err).Str("url", req.PostingURL).Msg("posting fetch failed")
			s.errorResponse(w, http.StatusBadGateway, "Failed to fetch job posting")
			return
		}
		description = text
	}

	generated, err := s.generator.Generate(r.Context(), questions.Request{
		Position:    req.Position,
		Description: description,
		TechStack:   req.TechStack,
		Experience:  req.Experience,
		Count:       req.Count,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("question generation failed")
		s.errorResponse(w, HTTPStatus(err), "Failed to generate questions")
		return
	}

	interview, err := s.store.CreateInterview(r.Context(), types.Interview{
		Position:    req.Position,
		Description: description,
		TechStack:   req.TechStack,
		Experience:  req.Experience,
		Questions:   generated,
		UserID:      userID,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("interview store failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	s.jsonResponse(w, http.StatusCreated, interview)
}

// handleGetInterview returns one interview owned by the caller.
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid interview ID")
		return
	}

	interview, err := s.store.GetInterview(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("interview lookup failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if interview == nil || interview.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "Interview not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, interview)
}

// handleListInterviews returns the caller's interviews.
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	interviews, err := s.store.ListInterviews(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("interview list failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if interviews == nil {
		interviews = []types.Interview{}
	}
	s.jsonResponse(w, http.StatusOK, interviews)
}

// handleFindAnswer looks up the caller's prior answer for a question. The
// panel calls it on mount to decide between recording and already-answered.
func (s *Server) handleFindAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	question := r.URL.Query().Get("question")
	if question == "" {
		s.errorResponse(w, http.StatusBadRequest, "question query parameter is required")
		return
	}

	answer, err := s.store.FindUserAnswer(r.Context(), userID, question)
	if err != nil {
		s.log.Error().Err(err).Msg("answer lookup failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"answered": answer != nil,
		"answer":   answer,
	})
}

// handleSaveAnswer persists a graded answer. The write is idempotent per
// (user, question): an existing record is returned with already_answered set
// and no insert happens.
func (s *Server) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SaveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Feedback == "" {
		s.errorResponse(w, http.StatusBadRequest, "answer has no grade result")
		return
	}

	prior, err := s.store.FindUserAnswer(r.Context(), userID, req.Question)
	if err != nil {
		s.log.Error().Err(err).Msg("answer lookup failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if prior != nil {
		observability.DefaultMetrics.AnswerSaves.WithLabelValues("duplicate").Inc()
		s.jsonResponse(w, http.StatusOK, SaveAnswerResponse{Answer: *prior, AlreadyAnswered: true})
		return
	}

	saved, err := s.store.SaveUserAnswer(r.Context(), types.UserAnswer{
		InterviewID:   req.InterviewID,
		Question:      req.Question,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    req.UserAnswer,
		Feedback:      req.Feedback,
		Rating:        req.Rating,
		VoiceAnalysis: req.VoiceAnalysis,
		UserID:        userID,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("answer save failed")
		s.errorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	observability.DefaultMetrics.AnswerSaves.WithLabelValues("created").Inc()
	s.jsonResponse(w, http.StatusCreated, SaveAnswerResponse{Answer: saved})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
