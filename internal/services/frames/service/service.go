// Package service implements frame discovery, download, and cache writing
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	"gwdata/internal/platform/logger"
	dom "gwdata/internal/services/frames/domain"
)

const defaultHost = "datafind.igwn.org"

// Config for the frames service
type Config struct {
	Source dom.Source
	// Types maps detector to frame type; required for the private source
	Types map[string]string
	Host  string
	// Duration keeps only frame files of this length in seconds; zero keeps all
	Duration int
	FrameDir string
	CacheDir string
}

// Service plans queries, runs discovery, and materializes frames plus
// LAL cache files
type Service struct {
	Disc  dom.DiscoveryPort
	Fetch dom.FetchPort
	Cfg   Config
}

// New constructs a frames service with required discovery and fetch ports
func New(disc dom.DiscoveryPort, fetch dom.FetchPort, cfg Config) *Service {
	if cfg.Source == "" {
		cfg.Source = dom.SourceGWOSC
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.FrameDir == "" {
		cfg.FrameDir = "frames"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "cache"
	}
	return &Service{Disc: disc, Fetch: fetch, Cfg: cfg}
}

// Queries builds one lookup per detector
func (s *Service) Queries(dets []calibration.Detector, w gwtime.Window) ([]dom.Query, error) {
	qs := make([]dom.Query, 0, len(dets))
	for _, d := range dets {
		q := dom.Query{
			Detector: d,
			Site:     d.Site(),
			Window:   w,
			Host:     s.Cfg.Host,
		}
		if s.Cfg.Source == dom.SourcePrivate {
			ft, ok := s.Cfg.Types[string(d)]
			if !ok {
				return nil, perr.Validationf("private frame source needs a frame type for %s", d)
			}
			q.FrameType = ft
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// Discover returns candidate frame URLs per detector, filtered by the
// configured duration
func (s *Service) Discover(ctx context.Context, dets []calibration.Detector, w gwtime.Window) (map[calibration.Detector][]string, error) {
	qs, err := s.Queries(dets, w)
	if err != nil {
		return nil, err
	}
	urls := make(map[calibration.Detector][]string, len(qs))
	for _, q := range qs {
		found, err := s.Disc.FindURLs(ctx, q)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "frame discovery for %s", q.Detector)
		}
		urls[q.Detector] = s.filterDuration(found)
	}
	return urls, nil
}

// Materialize downloads the discovered frames and writes one LAL cache
// file per detector
func (s *Service) Materialize(ctx context.Context, dets []calibration.Detector, w gwtime.Window) (map[calibration.Detector][]string, error) {
	urls, err := s.Discover(ctx, dets, w)
	if err != nil {
		return nil, err
	}
	log := logger.C(ctx)
	files := make(map[calibration.Detector][]string, len(urls))
	for det, detURLs := range urls {
		for _, u := range detURLs {
			local, err := s.Fetch.Download(ctx, u, s.Cfg.FrameDir)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "frame download %s", u)
			}
			files[det] = append(files[det], local)
		}
		log.Info().Str("detector", string(det)).Int("frames", len(files[det])).Msg("frames materialized")
		if err := s.WriteCache(det, files[det]); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (s *Service) filterDuration(urls []string) []string {
	if s.Cfg.Duration <= 0 {
		return urls
	}
	kept := urls[:0:0]
	for _, u := range urls {
		ff, err := dom.ParseFrameName(u)
		if err != nil {
			continue
		}
		if ff.Duration == s.Cfg.Duration {
			kept = append(kept, u)
		}
	}
	return kept
}

// WriteCache writes a LAL-format cache file listing the detector's local
// frame files, one line per frame:
// OBS TYPE START DURATION file://localhost/abs/path
func (s *Service) WriteCache(det calibration.Detector, paths []string) error {
	if err := os.MkdirAll(s.Cfg.CacheDir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cache dir %s", s.Cfg.CacheDir)
	}
	var b strings.Builder
	for _, p := range paths {
		ff, err := dom.ParseFrameName(p)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "resolve %s", p)
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\t%d\tfile://localhost%s\n",
			ff.Observatory, ff.Type, int64(ff.Start), ff.Duration, abs)
	}
	out := filepath.Join(s.Cfg.CacheDir, fmt.Sprintf("%s.cache", det))
	if err := os.WriteFile(out, []byte(b.String()), 0o644); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "write cache %s", out)
	}
	return nil
}
