// Package report writes the batch manifest and a small HTML index for a
// fetch session
package report

import (
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	caldom "gwdata/internal/services/calfetch/domain"
)

// Manifest is the machine-readable record of one fetch session
type Manifest struct {
	Session   string           `json:"session"`
	CreatedAt time.Time        `json:"created_at"`
	GPSStart  float64          `json:"gps_start"`
	GPSEnd    float64          `json:"gps_end"`
	Detectors []DetectorRecord `json:"detectors"`
}

// DetectorRecord is one detector's products and failures
type DetectorRecord struct {
	Detector    string             `json:"detector"`
	Frames      []string           `json:"frames,omitempty"`
	Calibration *CalibrationRecord `json:"calibration,omitempty"`
	Error       *perr.Wire         `json:"error,omitempty"`
}

// CalibrationRecord describes a materialized envelope
type CalibrationRecord struct {
	Source   string `json:"source"`
	Run      string `json:"run"`
	Version  string `json:"version,omitempty"`
	Path     string `json:"path"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Builder accumulates a session's outcomes and renders them once
type Builder struct {
	session string
	created time.Time
	window  gwtime.Window
	byDet   map[calibration.Detector]*DetectorRecord
}

// New opens a report builder for one session
func New(w gwtime.Window) *Builder {
	return &Builder{
		session: uuid.NewString(),
		created: time.Now().UTC(),
		window:  w,
		byDet:   make(map[calibration.Detector]*DetectorRecord),
	}
}

// Session returns the session id
func (b *Builder) Session() string { return b.session }

func (b *Builder) record(d calibration.Detector) *DetectorRecord {
	r, ok := b.byDet[d]
	if !ok {
		r = &DetectorRecord{Detector: string(d)}
		b.byDet[d] = r
	}
	return r
}

// AddFrames records the local frame files materialized for a detector
func (b *Builder) AddFrames(d calibration.Detector, files []string) {
	b.record(d).Frames = append(b.record(d).Frames, files...)
}

// AddCalibration records a calfetch outcome, product or failure
func (b *Builder) AddCalibration(o caldom.Outcome) {
	r := b.record(o.Detector)
	if o.Err != nil {
		w := perr.WireFrom(o.Err)
		r.Error = &w
		return
	}
	r.Calibration = &CalibrationRecord{
		Source:   string(o.Product.Source),
		Run:      o.Product.Plan.Run.Name,
		Version:  o.Product.Plan.Version,
		Path:     o.Product.Path,
		Fallback: o.Product.Fallback,
	}
}

// Manifest renders the accumulated state with detectors in stable order
func (b *Builder) Manifest() Manifest {
	dets := make([]DetectorRecord, 0, len(b.byDet))
	for _, r := range b.byDet {
		dets = append(dets, *r)
	}
	sort.Slice(dets, func(i, j int) bool { return dets[i].Detector < dets[j].Detector })
	return Manifest{
		Session:   b.session,
		CreatedAt: b.created,
		GPSStart:  float64(b.window.Start),
		GPSEnd:    float64(b.window.End),
		Detectors: dets,
	}
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><title>Data Report</title></head>
<body>
<h1>Data Report</h1>
<p>Session {{.Session}} &middot; GPS {{.GPSStart}}&ndash;{{.GPSEnd}}</p>
{{range .Detectors}}
<h2>{{.Detector}}</h2>
{{if .Error}}<p class="error">{{.Error.Message}}</p>{{end}}
{{if .Calibration}}<p>Calibration ({{.Calibration.Source}}, {{.Calibration.Run}}): {{.Calibration.Path}}</p>{{end}}
{{if .Frames}}<ul>{{range .Frames}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}
</body>
</html>
`))

// Write renders manifest.json and index.html under dir
func (b *Builder) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "report dir %s", dir)
	}
	m := b.Manifest()

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "write manifest")
	}

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "write index")
	}
	defer f.Close()
	if err := indexTmpl.Execute(f, m); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "render index")
	}
	return nil
}
