package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ZaguanLabs/treelai"
)

// TranslateRequest is the JSON body of POST /v1/translate.
type TranslateRequest struct {
	DocContent       string   `json:"doc_content"`
	InputFormat      string   `json:"input_format,omitempty"`
	ExportFormat     string   `json:"export_format,omitempty"`
	TargetLanguage   string   `json:"target_language,omitempty"`
	ProtectedStrings []string `json:"protected_strings,omitempty"`
}

// Request converts the envelope into a pipeline request.
func (r TranslateRequest) Request() treelai.Request {
	return treelai.Request{
		Content:          r.DocContent,
		InputFormat:      r.InputFormat,
		ExportFormat:     r.ExportFormat,
		TargetLang:       r.TargetLanguage,
		ProtectedStrings: r.ProtectedStrings,
	}
}

// NewTranslateResponse builds the response envelope for a translated document.
func NewTranslateResponse(doc *treelai.ProcessedDocument) TranslateResponse {
	return TranslateResponse{
		Content:      doc.Content,
		ExportFormat: string(doc.Format),
		TotalLeaves:  doc.TotalLeaves,
		Translated:   doc.TranslatedCount,
		Fallback:     doc.FallbackCount,
	}
}

// TranslateResponse is the JSON body returned by POST /v1/translate.
type TranslateResponse struct {
	Content      string `json:"content"`
	ExportFormat string `json:"export_format"`
	TotalLeaves  int    `json:"total_leaves"`
	Translated   int    `json:"translated"`
	Fallback     int    `json:"fallback"`
}

// PlanResponse is the JSON body returned by POST /v1/plan.
type PlanResponse struct {
	Leaves []PlannedLeaf `json:"leaves"`
}

// PlannedLeaf is one leaf a translation would send to the backend.
type PlannedLeaf struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Formality  string `json:"formality"`
	Context    string `json:"context,omitempty"`
	ModelHint  string `json:"model_type,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Path  string `json:"path,omitempty"`
}

// LeafTranslationFailure is the error kind reported when the backend fails.
const LeafTranslationFailure = "LeafTranslationFailure"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  treelai.BuildInfo(),
	})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.translator.Translate(r.Context(), req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, NewTranslateResponse(result))
}

// handleTranslateRaw takes the document itself as the body. The
// Content-Type header is the format hint; options come from the query.
func (s *Server) handleTranslateRaw(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.maxBodyBytes)
	if err != nil {
		s.writeBodyError(w, err)
		return
	}

	q := r.URL.Query()
	result, err := s.translator.Translate(r.Context(), treelai.Request{
		Content:          string(body),
		InputFormat:      r.Header.Get("Content-Type"),
		ExportFormat:     q.Get("export_format"),
		TargetLang:       q.Get("target_language"),
		ProtectedStrings: q["protected"],
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	contentType := "application/json; charset=utf-8"
	if result.Format == treelai.FormatYAML {
		contentType = "application/yaml; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Total-Leaves", strconv.Itoa(result.TotalLeaves))
	w.Header().Set("X-Fallback-Leaves", strconv.Itoa(result.FallbackCount))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Content))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	contexts, err := s.translator.Plan(req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	resp := PlanResponse{Leaves: make([]PlannedLeaf, len(contexts))}
	for i, tc := range contexts {
		resp.Leaves[i] = PlannedLeaf{
			Text:       tc.Text,
			SourceLang: tc.SourceLang,
			TargetLang: tc.TargetLang,
			Formality:  string(tc.Formality),
			Context:    tc.Context,
			ModelHint:  tc.ModelHint,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (treelai.Request, bool) {
	body, err := readBody(w, r, s.maxBodyBytes)
	if err != nil {
		s.writeBodyError(w, err)
		return treelai.Request{}, false
	}

	var in TranslateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "request body is not valid JSON: " + err.Error(),
			Kind:  "InvalidRequest",
		})
		return treelai.Request{}, false
	}

	return in.Request(), true
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "request body too large",
			Kind:  "RequestTooLarge",
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "InvalidRequest"})
}

// writeError maps pipeline errors to HTTP statuses: caller mistakes are
// 400, backend failures 502, timeouts 504.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if treelai.IsClientError(err) {
		resp := ErrorResponse{Error: err.Error(), Kind: string(treelai.KindOf(err))}
		var validationErr *treelai.ValidationError
		if errors.As(err, &validationErr) {
			resp.Path = validationErr.Path
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "translation timed out", Kind: "Timeout"})
		return
	}

	var leafErr *treelai.LeafError
	if errors.As(err, &leafErr) {
		s.logger.WarnContext(ctx, "document translation failed", "path", leafErr.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Kind:  LeafTranslationFailure,
			Path:  leafErr.Path,
		})
		return
	}

	s.logger.ErrorContext(ctx, "document translation failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
