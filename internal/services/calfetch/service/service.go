// Package service executes calibration retrieval plans and applies the
// per-detector fallback rules
package service

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"regexp"
	"strconv"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	"gwdata/internal/platform/logger"
	dom "gwdata/internal/services/calfetch/domain"
)

// Config for the calfetch service
type Config struct {
	// ProductDir is where downloaded envelopes land
	ProductDir string
}

// Service executes plans built from a batch calibration config. Each
// detector gets at most one fallback attempt; fallback never loops
type Service struct {
	Cal     calibration.Config
	Down    dom.DownloaderPort
	Extract dom.EnvelopeExtractorPort
	Meta    dom.MetafileReaderPort
	Cfg     Config
}

// New constructs a calfetch service
func New(cal calibration.Config, down dom.DownloaderPort, extract dom.EnvelopeExtractorPort, meta dom.MetafileReaderPort, cfg Config) *Service {
	if cfg.ProductDir == "" {
		cfg.ProductDir = "calibration"
	}
	return &Service{Cal: cal, Down: down, Extract: extract, Meta: meta, Cfg: cfg}
}

// FetchAll retrieves the envelope for every detector independently.
// A detector that cannot be planned or fetched yields an error outcome;
// the rest of the batch proceeds
func (s *Service) FetchAll(ctx context.Context, dets []calibration.Detector, w gwtime.Window) []dom.Outcome {
	res := calibration.NewResolver(s.Cal)
	log := logger.C(ctx)

	out := make([]dom.Outcome, 0, len(dets))
	for _, r := range res.PlanAll(dets, w) {
		if r.Err != nil {
			out = append(out, dom.Outcome{Detector: r.Detector, Err: r.Err})
			continue
		}
		prod, err := s.fetchPlan(ctx, r.Plan)
		if err != nil {
			log.Warn().Str("detector", string(r.Detector)).Err(err).Msg("calibration fetch failed")
			out = append(out, dom.Outcome{Detector: r.Detector, Err: err})
			continue
		}
		out = append(out, dom.Outcome{Detector: r.Detector, Product: prod})
	}
	return out
}

// fetchPlan executes one plan, applying at most one fallback:
//   - a defaulted local-storage miss for H1/L1 retries as a public download
//   - a frame extraction failure for V1 retries as local storage, but only
//     for the O2/O3 eras where the archive carries Virgo envelopes
func (s *Service) fetchPlan(ctx context.Context, plan calibration.Plan) (*dom.Product, error) {
	path, err := s.execute(ctx, plan)
	if err == nil {
		return &dom.Product{Detector: plan.Detector, Source: plan.Source, Path: path, Plan: plan}, nil
	}

	override, ok := s.fallbackSource(plan, err)
	if !ok {
		return nil, err
	}

	cfg := s.Cal
	cfg.Source = string(override)
	fbPlan, fbErr := calibration.NewResolver(cfg).Plan(plan.Detector, plan.Window)
	if fbErr != nil {
		return nil, fbErr
	}
	path, fbErr = s.execute(ctx, fbPlan)
	if fbErr != nil {
		return nil, fbErr
	}
	logger.C(ctx).Info().
		Str("detector", string(plan.Detector)).
		Str("planned", string(plan.Source)).
		Str("used", string(fbPlan.Source)).
		Msg("calibration fallback engaged")
	return &dom.Product{Detector: plan.Detector, Source: fbPlan.Source, Path: path, Fallback: true, Plan: fbPlan}, nil
}

func (s *Service) fallbackSource(plan calibration.Plan, err error) (calibration.SourceType, bool) {
	switch plan.Source {
	case calibration.SourceLocalStorage:
		// only defaulted selections fall back; an explicit override is an
		// instruction, not a preference
		if s.Cal.Source != "" {
			return "", false
		}
		if plan.Detector != calibration.H1 && plan.Detector != calibration.L1 {
			return "", false
		}
		if !perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", false
		}
		return calibration.SourcePublic, true
	case calibration.SourceFrame:
		if plan.Detector != calibration.V1 {
			return "", false
		}
		era := plan.Run.Era()
		if era != "O2" && era != "O3" {
			return "", false
		}
		return calibration.SourceLocalStorage, true
	}
	return "", false
}

func (s *Service) execute(ctx context.Context, plan calibration.Plan) (string, error) {
	switch plan.Source {
	case calibration.SourceLocalStorage:
		return nearestUncertaintyFile(plan.ArchivePath, plan.Detector, plan.Window.Start)
	case calibration.SourceFrame:
		return s.Extract.ExtractEnvelope(ctx, plan)
	case calibration.SourcePESummary:
		return s.Meta.ReadCalibration(ctx, plan.Metafile, plan.AnalysisLabel, plan.Detector)
	case calibration.SourcePublic:
		return s.Down.Download(ctx, publicEnvelopeURL(plan), s.Cfg.ProductDir)
	}
	return "", perr.InvalidSourceTypef("no executor for source %q", plan.Source)
}

// publicEnvelopeURL names the envelope file inside a DCC document's public
// file listing
func publicEnvelopeURL(p calibration.Plan) string {
	return fmt.Sprintf("https://dcc.ligo.org/LIGO-%s/public/calibration_uncertainty_%s_%s.txt",
		p.Document, p.Detector, p.Version)
}

var uncertaintyName = regexp.MustCompile(`^calibration_uncertainty_([A-Z][0-9])_([0-9]+(?:\.[0-9]+)?)\.txt$`)

// nearestUncertaintyFile walks an archive directory for this detector's
// uncertainty files and picks the one whose GPS stamp is nearest the
// requested time. Ties keep the earlier file
func nearestUncertaintyFile(dir string, det calibration.Detector, t gwtime.GPS) (string, error) {
	best := ""
	bestDist := math.Inf(1)

	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		m := uncertaintyName.FindStringSubmatch(d.Name())
		if m == nil || m[1] != string(det) {
			return nil
		}
		gps, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil
		}
		dist := math.Abs(gps - float64(t))
		if dist < bestDist {
			best, bestDist = p, dist
		}
		return nil
	})
	if walkErr != nil {
		return "", perr.WithDetector(
			perr.NotFoundf("calibration archive %s is not readable", dir), string(det))
	}
	if best == "" {
		return "", perr.WithDetector(
			perr.NotFoundf("no uncertainty file for %s near GPS %d under %s", det, int64(t), dir),
			string(det))
	}
	return best, nil
}
