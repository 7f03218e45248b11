package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/catalog"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/koustreak/tablecompare/internal/logger"
	"github.com/koustreak/tablecompare/internal/report"
)

// runOptions are the per-request overrides shared by both compare routes.
type runOptions struct {
	Semantics string `json:"semantics,omitempty"`
	Workers   int    `json:"workers,omitempty"`
	Export    bool   `json:"export,omitempty"`
}

type compareTablesRequest struct {
	Source batch.Scope `json:"source"`
	Target batch.Scope `json:"target"`
	Tables []string    `json:"tables"`
	runOptions
}

type compareSchemasRequest struct {
	SourceDatabase string   `json:"source_database"`
	SourceSchemas  []string `json:"source_schemas"`
	TargetDatabase string   `json:"target_database"`
	TargetSchemas  []string `json:"target_schemas"`
	runOptions
}

type compareResponse struct {
	report.Document
	Export *report.Exported `json:"export,omitempty"`
}

func (s *Server) compareTables(w http.ResponseWriter, r *http.Request) {
	var req compareTablesRequest
	if !decode(w, r, &req) {
		return
	}
	s.run(w, r, req.runOptions, func(ctx context.Context, o *batch.Orchestrator) (*batch.Report, error) {
		return o.CompareExplicitTables(ctx, req.Source, req.Target, req.Tables)
	})
}

func (s *Server) compareSchemas(w http.ResponseWriter, r *http.Request) {
	var req compareSchemasRequest
	if !decode(w, r, &req) {
		return
	}
	s.run(w, r, req.runOptions, func(ctx context.Context, o *batch.Orchestrator) (*batch.Report, error) {
		return o.CompareSchemaPairs(ctx, req.SourceDatabase, req.SourceSchemas, req.TargetDatabase, req.TargetSchemas)
	})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, ro runOptions, fn func(context.Context, *batch.Orchestrator) (*batch.Report, error)) {
	cmpOpts := s.opts.Compare
	if ro.Semantics != "" {
		sem, err := compare.ParseSemantics(ro.Semantics)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cmpOpts.Semantics = sem
	}

	workers := s.opts.Workers
	if ro.Workers != 0 {
		if ro.Workers < 1 || ro.Workers > s.opts.MaxWorkers {
			writeError(w, r, errs.Newf(errs.ErrKindInvalidInput, "workers must be between 1 and %d", s.opts.MaxWorkers))
			return
		}
		workers = ro.Workers
	}

	if ro.Export && s.opts.Exporter == nil {
		writeError(w, r, errs.New(errs.ErrKindInvalidInput, "report export is not configured"))
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	log := logger.FromContext(ctx)
	acc := catalog.New(s.db, diag.Log(log))
	orch := batch.New(compare.New(s.db, acc, cmpOpts), acc, batch.Options{
		Workers:  workers,
		Notifier: diag.Log(log),
		Logger:   log,
	})

	rep, err := fn(ctx, orch)
	resp := compareResponse{Document: report.NewDocument(rep)}
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{
			Error:       err.Error(),
			Kind:        errs.KindOf(err).String(),
			Diagnostics: resp.Diagnostics,
		})
		return
	}

	if ro.Export {
		// The comparison context may have expired; the upload gets the
		// client's own context.
		exported, err := s.opts.Exporter.Export(r.Context(), rep)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Export = exported
	}

	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err))
		return false
	}
	return true
}
