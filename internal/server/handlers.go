package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/startupjobs/jobboard-service/internal/auth"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/intake"
	"github.com/startupjobs/jobboard-service/internal/models"
)

const maxBodyBytes = 64 << 10

type jobsResponse struct {
	Jobs  []models.JobPosting `json:"jobs"`
	Count int                 `json:"count"`
}

func newJobsResponse(jobs []models.JobPosting) jobsResponse {
	if jobs == nil {
		jobs = []models.JobPosting{}
	}
	return jobsResponse{Jobs: jobs, Count: len(jobs)}
}

// decodeBody fills dst from a JSON body, or from form values keyed by dst's JSON field names
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return apperrors.ValidationField("body", "Request body must be valid JSON.")
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return apperrors.ValidationField("body", "Request body must be a valid form.")
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	// round-trip through JSON so form keys follow the same field names as JSON bodies
	raw, err := json.Marshal(values)
	if err != nil {
		return apperrors.Internal("failed to read form", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.ValidationField("body", "Request body could not be read.")
	}
	return nil
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, code, map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, apperrors.NotFoundf("no route for %s %s", r.Method, r.URL.Path), nil)
}

// handleListJobs lists active postings, optionally filtered by category, company and location
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := s.deps.Listing.Search(r.Context(), q.Get("category"), q.Get("company"), q.Get("location"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 {
			s.writeError(w, r, apperrors.ValidationField("limit", "Limit must be a positive integer."), nil)
			return
		}
		limit = l
	}

	jobs, err := s.deps.Listing.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Listing.Posting(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Listing.ByCategory(r.Context(), mux.Vars(r)["category"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Listing.ByCompany(r.Context(), mux.Vars(r)["company"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Listing.ByLocation(r.Context(), mux.Vars(r)["location"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

// handleSubmitJob accepts a public submission as JSON or form data
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var sub intake.Submission
	if err := decodeBody(w, r, &sub); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	id, err := s.deps.Intake.Submit(r.Context(), sub)
	if err != nil {
		s.writeError(w, r, err, sub)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	sess, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.authConfig.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.authConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.WithField("admin", sess.Email).Info("administrator logged in")
	s.writeJSON(w, http.StatusOK, map[string]any{"expires_at": sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		if err := s.deps.Auth.Logout(r.Context(), sess.ID); err != nil {
			s.writeError(w, r, apperrors.Internal("failed to end session", err), nil)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.authConfig.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.authConfig.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Moderation.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobsResponse(jobs))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	job, err := s.deps.Moderation.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Moderation.RunSweep(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}
