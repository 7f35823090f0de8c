package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/model"
)

type targetRequest struct {
	TargetURL string `json:"target_url"`
}

type fileRequest struct {
	FilePath string `json:"file_path"`
}

type companiesRequest struct {
	JSONFilePath string `json:"json_file_path"`
}

type prioritizeRequest struct {
	PotentialCustomerPath string `json:"potential_customer_path"`
	CompanyProfilePath    string `json:"company_profile_path"`
}

type storeRequest struct {
	FilePath string `json:"file_path"`
	RootURL  string `json:"root_url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	if req.TargetURL == "" {
		writeUnprocessable(w, "target_url is required.")
		return
	}
	res, err := s.stages.Crawl(r.Context(), req.TargetURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	res, err := s.stages.Profile(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	res, err := s.stages.FindEvents(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	var req companiesRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	res, err := s.stages.ExtractCompanies(r.Context(), req.JSONFilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	var req prioritizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	res, err := s.stages.Prioritize(r.Context(), req.PotentialCustomerPath, req.CompanyProfilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleOutreach takes the prioritized customer record as the request body.
func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	var record model.PrioritizedCustomer
	if err := decodeBody(r, &record); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	res, err := s.stages.Outreach(r.Context(), record)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRun returns the stage report on success and alongside the failure
// detail otherwise.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	if req.TargetURL == "" {
		writeUnprocessable(w, "target_url is required.")
		return
	}
	report, err := s.stages.Run(r.Context(), req.TargetURL)
	if err != nil {
		writeErrorReport(w, err, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// storeParams reads file_path and root_url from the query string, falling
// back to a JSON body.
func storeParams(r *http.Request) (storeRequest, error) {
	req := storeRequest{
		FilePath: r.URL.Query().Get("file_path"),
		RootURL:  r.URL.Query().Get("root_url"),
	}
	var body storeRequest
	if err := decodeBody(r, &body); err != nil {
		return req, err
	}
	if req.FilePath == "" {
		req.FilePath = body.FilePath
	}
	if req.RootURL == "" {
		req.RootURL = body.RootURL
	}
	return req, nil
}

func (s *Server) handleStoreEvents(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Status: "unavailable", Detail: "no store configured"})
		return
	}
	req, err := storeParams(r)
	if err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	if req.FilePath == "" || req.RootURL == "" {
		writeUnprocessable(w, "file_path and root_url are required.")
		return
	}
	res, err := s.loader.LoadEvents(r.Context(), req.FilePath, req.RootURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStoreCustomers(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Status: "unavailable", Detail: "no store configured"})
		return
	}
	req, err := storeParams(r)
	if err != nil {
		writeUnprocessable(w, "invalid request body: "+err.Error())
		return
	}
	if req.FilePath == "" {
		writeUnprocessable(w, "file_path is required.")
		return
	}
	res, err := s.loader.LoadCustomers(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleView(kind artifact.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		content, err := s.viewer.View(kind)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	kind, err := artifact.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := s.viewer.View(kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":    string(kind),
		"content": content,
	})
}
