package calibration

import (
	"path/filepath"

	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
)

// Public DCC document identifiers for calibration uncertainty releases.
// Two releases exist: one bundle covering O1 through O3, and the O4-era
// release. H1/L1 only; Virgo and KAGRA do not publish calibration there
const (
	documentO1O3 = "T2100313"
	documentO4   = "T2400236"
)

// dccDocuments maps a run era onto the public document that covers it
var dccDocuments = map[string]string{
	"O1": documentO1O3,
	"O2": documentO1O3,
	"O3": documentO1O3,
	"O4": documentO4,
}

// Per-detector frame defaults for frame-embedded calibration. The Virgo
// channel prefix matches the Hrec reprocessing channels the envelope is
// published under; frame types follow the hoft type naming for each site
var (
	defaultChannelPrefix = map[Detector]string{
		H1: "H1:GDS-CALIB_STRAIN_UNC",
		L1: "L1:GDS-CALIB_STRAIN_UNC",
		V1: "V1:Hrec_hoftRepro1AR_U01",
		K1: "K1:CAL-CS_PROC_UNC",
	}
	defaultFrameType = map[Detector]string{
		H1: "H1_HOFT_C02",
		L1: "L1_HOFT_C02",
		V1: "HoftAR1",
		K1: "K1_HOFT",
	}
)

// Config carries the user-supplied calibration hints for one batch.
// Everything is optional except what the selected source type ends up
// needing; missing required parameters surface as typed outcomes at plan
// time, not as I/O failures later
type Config struct {
	// Source forces a retrieval strategy for every detector in the batch
	// ("local storage", "frame", "pesummary", "public"). Empty means apply
	// per-detector defaults
	Source string

	// Versions is the scalar-or-mapping calibration version configuration.
	// Consulted only for the local storage and public strategies
	Versions VersionSpec

	// ArchiveDir is the base directory of the collaboration calibration
	// archive (local storage strategy)
	ArchiveDir string

	// ChannelPrefixes overrides the per-detector envelope channel prefix
	// (frame strategy)
	ChannelPrefixes map[Detector]string

	// TimestampChannel overrides the derived last-write timestamp channel;
	// empty derives "{prefix}_lastWriteGPS"
	TimestampChannel string

	// FrameTypes overrides the per-detector frame type (frame strategy)
	FrameTypes map[Detector]string

	// Metafile is the PESummary result file path (pesummary strategy)
	Metafile string

	// AnalysisLabel names the analysis whose calibration table to extract.
	// Required when the metafile holds more than one analysis
	AnalysisLabel string

	// MetafileAnalyses lists the analysis labels known to exist in the
	// metafile, when the caller has already inspected it
	MetafileAnalyses []string
}

// Plan is a fully-specified calibration retrieval request: strategy plus the
// parameters that strategy needs. Plans are plain values, cheap to build,
// idempotent, and safe to re-execute across fetch retries
type Plan struct {
	Detector Detector      `json:"detector"`
	Source   SourceType    `json:"source"`
	Run      gwtime.Run    `json:"run"`
	Window   gwtime.Window `json:"window"`

	// Version is set only for source types that need an explicit version
	// (local storage, public); frame and pesummary sources carry their own
	Version string `json:"version,omitempty"`

	// local storage
	ArchivePath string `json:"archive_path,omitempty"`

	// frame
	ChannelPrefix    string `json:"channel_prefix,omitempty"`
	TimestampChannel string `json:"timestamp_channel,omitempty"`
	FrameType        string `json:"frame_type,omitempty"`

	// pesummary
	Metafile      string `json:"metafile,omitempty"`
	AnalysisLabel string `json:"analysis_label,omitempty"`

	// public
	Document string `json:"document,omitempty"`
}

// Result pairs a detector with its plan or its typed failure, so batch
// callers can report partial success instead of aborting on the first
// unresolved detector
type Result struct {
	Detector Detector
	Plan     Plan
	Err      error
}

// Resolver builds retrieval plans from a batch config. It performs no I/O
// and holds no mutable state; a single Resolver may be shared across
// goroutines freely
type Resolver struct {
	cfg Config
}

// NewResolver builds a resolver over a batch configuration
func NewResolver(cfg Config) Resolver { return Resolver{cfg: cfg} }

// Plan assembles the retrieval plan for one detector over a GPS window.
// The run is resolved from the window start; every failure is a typed
// outcome tagged with the detector
func (r Resolver) Plan(d Detector, w gwtime.Window) (Plan, error) {
	if !d.Valid() {
		return Plan{}, perr.WithDetector(perr.InvalidArgf("unknown detector %q", string(d)), string(d))
	}

	run, err := gwtime.ResolveRun(w.Start)
	if err != nil {
		return Plan{}, perr.WithDetector(err, string(d))
	}
	if !run.Calibrated {
		return Plan{}, perr.WithDetector(
			perr.CalibrationUnavailablef("no calibration products exist for %s", run.Name),
			string(d))
	}

	src, err := SelectSource(d, run, r.cfg.Source)
	if err != nil {
		return Plan{}, perr.WithDetector(err, string(d))
	}

	p := Plan{Detector: d, Source: src, Run: run, Window: w}

	switch src {
	case SourceLocalStorage:
		if err := r.planLocalStorage(&p); err != nil {
			return Plan{}, err
		}
	case SourceFrame:
		r.planFrame(&p)
	case SourcePESummary:
		if err := r.planPESummary(&p); err != nil {
			return Plan{}, err
		}
	case SourcePublic:
		if err := r.planPublic(&p); err != nil {
			return Plan{}, err
		}
	}

	return p, nil
}

// PlanAll resolves every detector independently and never aborts early
func (r Resolver) PlanAll(ds []Detector, w gwtime.Window) []Result {
	out := make([]Result, 0, len(ds))
	for _, d := range ds {
		p, err := r.Plan(d, w)
		out = append(out, Result{Detector: d, Plan: p, Err: err})
	}
	return out
}

func (r Resolver) planLocalStorage(p *Plan) error {
	v, err := r.cfg.Versions.Resolve(p.Detector)
	if err != nil {
		return err
	}
	if r.cfg.ArchiveDir == "" {
		return perr.WithDetector(
			perr.MissingDirectoryf("local storage source needs a calibration archive directory"),
			string(p.Detector))
	}
	p.Version = v
	p.ArchivePath = filepath.Join(r.cfg.ArchiveDir, p.Run.Name, string(p.Detector), v)
	return nil
}

// planFrame assembles channel names; the version is implicit in the frame
// content, so the version spec is deliberately not consulted
func (r Resolver) planFrame(p *Plan) {
	prefix := r.cfg.ChannelPrefixes[p.Detector]
	if prefix == "" {
		prefix = defaultChannelPrefix[p.Detector]
	}
	ts := r.cfg.TimestampChannel
	if ts == "" {
		ts = prefix + "_lastWriteGPS"
	}
	ft := r.cfg.FrameTypes[p.Detector]
	if ft == "" {
		ft = defaultFrameType[p.Detector]
	}
	p.ChannelPrefix = prefix
	p.TimestampChannel = ts
	p.FrameType = ft
}

func (r Resolver) planPESummary(p *Plan) error {
	if r.cfg.Metafile == "" {
		return perr.WithDetector(
			perr.MissingDirectoryf("pesummary source needs a metafile path"),
			string(p.Detector))
	}
	label := r.cfg.AnalysisLabel
	if label == "" {
		switch len(r.cfg.MetafileAnalyses) {
		case 0:
			// contents unknown at plan time; the metafile reader settles it
		case 1:
			label = r.cfg.MetafileAnalyses[0]
		default:
			return perr.WithDetector(
				perr.MissingAnalysisLabelf("metafile holds %d analyses; pick one", len(r.cfg.MetafileAnalyses)),
				string(p.Detector))
		}
	}
	p.Metafile = r.cfg.Metafile
	p.AnalysisLabel = label
	return nil
}

func (r Resolver) planPublic(p *Plan) error {
	if p.Detector != H1 && p.Detector != L1 {
		return perr.WithDetector(
			perr.UnsupportedDetectorf("%s calibration is not published on the DCC", p.Detector),
			string(p.Detector))
	}
	v, err := r.cfg.Versions.Resolve(p.Detector)
	if err != nil {
		return err
	}
	doc, ok := dccDocuments[p.Run.Era()]
	if !ok {
		return perr.WithDetector(
			perr.CalibrationUnavailablef("no public document covers %s", p.Run.Name),
			string(p.Detector))
	}
	p.Version = v
	p.Document = doc
	return nil
}
