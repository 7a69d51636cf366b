package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/analysis"
	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/query"
	"github.com/worktracker75-ui/datanav/internal/report"
	"github.com/worktracker75-ui/datanav/internal/workspace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const version = "1.0.0"

type summaryResponse struct {
	Summary  *analysis.Summary `json:"summary"`
	Metrics  []analysis.Metric `json:"metrics"`
	Markdown string            `json:"markdown"`
}

func newSummaryResponse(d *dataset.Dataset, s *analysis.Summary) summaryResponse {
	return summaryResponse{Summary: s, Metrics: analysis.Metrics(d), Markdown: s.Markdown()}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	d, _ := s.ws.Snapshot()
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": version,
		"rows":    d.Len(),
	})
}

// uploadDataset takes the raw file as the request body. XLSX is detected by
// Content-Type or a .xlsx name query parameter; everything else is CSV.
func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	spreadsheet := strings.HasPrefix(r.Header.Get("Content-Type"), xlsxContentType) || workspace.IsSpreadsheet(name)
	d, err := workspace.Read(http.MaxBytesReader(w, r.Body, maxUpload), spreadsheet)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "parse failed: "+err.Error())
		return
	}
	if d.IsEmpty() {
		WriteError(w, http.StatusUnprocessableEntity, "no data rows found")
		return
	}
	d.Name = name
	sum := s.ws.Load(d)
	WriteJSON(w, http.StatusOK, newSummaryResponse(d, sum))
}

func (s *Server) datasetSummary(w http.ResponseWriter, r *http.Request) {
	d, sum := s.ws.Snapshot()
	WriteJSON(w, http.StatusOK, newSummaryResponse(d, sum))
}

func (s *Server) exportDataset(w http.ResponseWriter, r *http.Request) {
	f, err := dataset.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, _ := s.ws.Snapshot()
	if d.IsEmpty() {
		WriteError(w, http.StatusConflict, workspace.ErrNoDataset.Error())
		return
	}
	var buf bytes.Buffer
	if err := dataset.Write(&buf, d, f); err != nil {
		WriteError(w, http.StatusInternalServerError, "export failed: "+err.Error())
		return
	}
	ct := "text/csv; charset=utf-8"
	if f == dataset.FormatXLSX {
		ct = xlsxContentType
	}
	attach(w, ct, dataset.ExportFilename(f, time.Now()))
	_, _ = w.Write(buf.Bytes())
}

type chatRequest struct {
	Content string `json:"content"`
}

// chat streams one assistant turn as server-sent events: a data frame per
// delta, then a done event carrying the finished message, or an error event.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "content is required")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	send := func(event string, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		if event != "" {
			fmt.Fprintf(w, "event: %s\n", event)
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		_ = rc.Flush()
	}

	m, err := s.ws.Ask(r.Context(), req.Content, func(id, delta string) {
		send("", map[string]string{"id": id, "delta": delta})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Warn().Err(err).Msg("chat turn failed")
		send("error", map[string]string{"error": ai.UserMessage(err)})
		return
	}
	send("done", m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.ws.Conversation().Messages())
}

func (s *Server) clearMessages(w http.ResponseWriter, r *http.Request) {
	s.ws.Conversation().Clear()
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.ws.Query(r.Context(), req.Query)
	if err != nil {
		var (
			ve *query.ValidationError
			ee *query.ExecError
		)
		switch {
		case errors.As(err, &ve):
			WriteError(w, http.StatusBadRequest, "SQL validation failed: "+ve.Reason)
		case errors.Is(err, workspace.ErrNoDataset):
			WriteError(w, http.StatusConflict, err.Error())
		case errors.As(err, &ee):
			WriteError(w, http.StatusUnprocessableEntity, "query execution failed: "+err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// downloadReport renders the PDF, or a single page as PNG when format=png.
func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	d, _ := s.ws.Snapshot()
	if d.IsEmpty() {
		WriteError(w, http.StatusConflict, workspace.ErrNoDataset.Error())
		return
	}
	q := r.URL.Query()
	in := s.ws.ReportInput(q.Get("title"))

	switch q.Get("format") {
	case "", "pdf":
		data, pages, err := report.Render(in, report.A4)
		if err != nil {
			log.Error().Err(err).Msg("report render failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("X-Report-Pages", strconv.Itoa(pages))
		attach(w, "application/pdf", report.Filename(in.Generated))
		_, _ = w.Write(data)
	case "png":
		pages, err := report.Compose(in, report.A4)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		n, err := strconv.Atoi(q.Get("page"))
		if q.Get("page") == "" {
			n, err = 1, nil
		}
		if err != nil || n < 1 || n > len(pages) {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("page must be between 1 and %d", len(pages)))
			return
		}
		var buf bytes.Buffer
		if err := report.WritePNG(&buf, pages[n-1], report.A4); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	default:
		WriteError(w, http.StatusBadRequest, "format must be pdf or png")
	}
}

// saveReport writes the PDF into the server's reports dir.
func (s *Server) saveReport(w http.ResponseWriter, r *http.Request) {
	path, err := s.ws.ExportReport(r.URL.Query().Get("title"))
	if err != nil {
		if errors.Is(err, workspace.ErrNoDataset) {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error().Err(err).Msg("report export failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "success", "path": path})
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
