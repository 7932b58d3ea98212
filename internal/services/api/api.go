// Package api mounts the resolution endpoints for gwdata-serve
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	phttp "gwdata/internal/platform/net/http"
	framedom "gwdata/internal/services/frames/domain"
	framesvc "gwdata/internal/services/frames/service"
)

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts all routes on the router
func Register(r chi.Router, d Deps) {
	h := &handlers{deps: d}

	r.Get("/meta/health", h.health)
	r.Get("/runs", h.runs)
	r.Get("/runs/resolve", h.resolveRun)
	r.Post("/plans", h.plans)
	r.Post("/frames/queries", h.frameQueries)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// RunResponse is one observing run entry
type RunResponse struct {
	Name       string  `json:"name"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Calibrated bool    `json:"calibrated"`
}

// PlanRequest asks for retrieval plans over a GPS window
type PlanRequest struct {
	Detectors []string `json:"detectors"`
	GPSStart  float64  `json:"gps_start"`
	GPSEnd    float64  `json:"gps_end"`

	Source    string            `json:"source,omitempty"`
	Version   string            `json:"version,omitempty"`
	Versions  map[string]string `json:"versions,omitempty"`
	Directory string            `json:"directory,omitempty"`
	Metafile  string            `json:"metafile,omitempty"`
	Label     string            `json:"label,omitempty"`
}

// FrameQueryRequest asks for per-detector frame lookups
type FrameQueryRequest struct {
	Detectors []string          `json:"detectors"`
	GPSStart  float64           `json:"gps_start"`
	GPSEnd    float64           `json:"gps_end"`
	Source    string            `json:"source,omitempty"`
	Types     map[string]string `json:"types,omitempty"`
	Host      string            `json:"host,omitempty"`
}

// FrameQueryResponse is one planned lookup
type FrameQueryResponse struct {
	Detector  string  `json:"detector"`
	Site      string  `json:"site"`
	FrameType string  `json:"frame_type,omitempty"`
	GPSStart  float64 `json:"gps_start"`
	GPSEnd    float64 `json:"gps_end"`
	Host      string  `json:"host"`
}

// PlanResult is one detector's plan or its typed failure
type PlanResult struct {
	Detector string            `json:"detector"`
	Plan     *calibration.Plan `json:"plan,omitempty"`
	Error    *perr.Wire        `json:"error,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	phttp.RespondOK(w, r, HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) runs(w http.ResponseWriter, r *http.Request) {
	all := gwtime.Runs()
	out := make([]RunResponse, 0, len(all))
	for _, run := range all {
		out = append(out, RunResponse{
			Name:       run.Name,
			Start:      float64(run.Start),
			End:        float64(run.End),
			Calibrated: run.Calibrated,
		})
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) resolveRun(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("gps")
	if raw == "" {
		phttp.RespondError(w, r, perr.Validationf("query parameter gps is required"))
		return
	}
	gps, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		phttp.RespondError(w, r, perr.Validationf("gps must be numeric, got %q", raw))
		return
	}
	run, err := gwtime.ResolveRun(gwtime.GPS(gps))
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, RunResponse{
		Name:       run.Name,
		Start:      float64(run.Start),
		End:        float64(run.End),
		Calibrated: run.Calibrated,
	})
}

func (h *handlers) plans(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		phttp.RespondError(w, r, perr.Validationf("request body is not valid JSON"))
		return
	}
	if len(req.Detectors) == 0 {
		phttp.RespondError(w, r, perr.Validationf("detectors is required"))
		return
	}
	if req.GPSEnd <= req.GPSStart {
		phttp.RespondError(w, r, perr.Validationf("gps_end must be after gps_start"))
		return
	}

	dets := make([]calibration.Detector, 0, len(req.Detectors))
	for _, raw := range req.Detectors {
		d, err := calibration.ParseDetector(raw)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		dets = append(dets, d)
	}

	cfg := calibration.Config{
		Source:        req.Source,
		ArchiveDir:    req.Directory,
		Metafile:      req.Metafile,
		AnalysisLabel: req.Label,
	}
	switch {
	case len(req.Versions) > 0:
		byDet := make(map[calibration.Detector]string, len(req.Versions))
		for k, v := range req.Versions {
			d, err := calibration.ParseDetector(k)
			if err != nil {
				phttp.RespondError(w, r, perr.Validationf("versions key %q is not a detector", k))
				return
			}
			byDet[d] = v
		}
		cfg.Versions = calibration.PerDetectorVersions(byDet)
	case req.Version != "":
		cfg.Versions = calibration.UniformVersion(req.Version)
	}

	res := calibration.NewResolver(cfg)
	w2 := gwtime.Window{Start: gwtime.GPS(req.GPSStart), End: gwtime.GPS(req.GPSEnd)}
	results := res.PlanAll(dets, w2)

	out := make([]PlanResult, 0, len(results))
	for _, rr := range results {
		pr := PlanResult{Detector: string(rr.Detector)}
		if rr.Err != nil {
			wire := perr.WireFrom(rr.Err)
			pr.Error = &wire
		} else {
			plan := rr.Plan
			pr.Plan = &plan
		}
		out = append(out, pr)
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) frameQueries(w http.ResponseWriter, r *http.Request) {
	var req FrameQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		phttp.RespondError(w, r, perr.Validationf("request body is not valid JSON"))
		return
	}
	if len(req.Detectors) == 0 {
		phttp.RespondError(w, r, perr.Validationf("detectors is required"))
		return
	}
	if req.GPSEnd <= req.GPSStart {
		phttp.RespondError(w, r, perr.Validationf("gps_end must be after gps_start"))
		return
	}
	dets := make([]calibration.Detector, 0, len(req.Detectors))
	for _, raw := range req.Detectors {
		d, err := calibration.ParseDetector(raw)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		dets = append(dets, d)
	}

	src := framedom.Source(req.Source)
	if req.Source != "" && src != framedom.SourceGWOSC && src != framedom.SourcePrivate {
		phttp.RespondError(w, r, perr.Validationf("source must be %q or %q", framedom.SourceGWOSC, framedom.SourcePrivate))
		return
	}

	svc := framesvc.New(nil, nil, framesvc.Config{
		Source: src,
		Types:  req.Types,
		Host:   req.Host,
	})
	qs, err := svc.Queries(dets, gwtime.Window{Start: gwtime.GPS(req.GPSStart), End: gwtime.GPS(req.GPSEnd)})
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	out := make([]FrameQueryResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, FrameQueryResponse{
			Detector:  string(q.Detector),
			Site:      q.Site,
			FrameType: q.FrameType,
			GPSStart:  float64(q.Window.Start),
			GPSEnd:    float64(q.Window.End),
			Host:      q.Host,
		})
	}
	phttp.RespondOK(w, r, out)
}
