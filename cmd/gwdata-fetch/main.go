package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"gwdata/internal/adapters/blueprint"
	"gwdata/internal/adapters/fetch"
	"gwdata/internal/core/calibration"
	"gwdata/internal/platform/auth"
	perr "gwdata/internal/platform/errors"
	"gwdata/internal/platform/logger"
	calsvc "gwdata/internal/services/calfetch/service"
	"gwdata/internal/services/report"
	"gwdata/internal/services/settings"
)

// externalPort reports strategies whose readers run outside this binary
type externalPort struct{ what string }

func (e externalPort) ExtractEnvelope(context.Context, calibration.Plan) (string, error) {
	return "", perr.Unavailablef("%s is handled by an external collaborator; configure a different source", e.what)
}

func (e externalPort) ReadCalibration(context.Context, string, string, calibration.Detector) (string, error) {
	return "", perr.Unavailablef("%s is handled by an external collaborator; configure a different source", e.what)
}

func main() {
	var (
		settingsPath = flag.String("settings", "", "path to the YAML settings document")
		productDir   = flag.String("products", "calibration", "directory for downloaded envelopes")
		reportDir    = flag.String("report", "report", "directory for the session manifest and report")
		tokenPath    = flag.String("token", "", "optional bearer token file, checked for read scopes")
		listEvents   = flag.Bool("list-events", false, "list event blueprints and exit")
		catalog      = flag.String("catalog", "", "catalog filter for -list-events (gwtc-2-1, gwtc-3, ias)")
		updateRepo   = flag.Bool("update-blueprints", false, "force a blueprint repository update")
		zenodoRecord = flag.String("zenodo", "", "download a Zenodo record's files into -products and exit")
	)
	flag.Parse()

	logger.Init(logger.FromEnv())
	l := logger.Named("fetch")
	ctx := context.Background()

	if *listEvents || *updateRepo {
		repo := blueprint.NewRepository("")
		if *updateRepo {
			if _, err := repo.EnsureAvailable(ctx, true); err != nil {
				l.Fatal().Err(err).Msg("blueprint update failed")
			}
		}
		if *listEvents {
			events, err := repo.ListEvents(ctx, *catalog)
			if err != nil {
				l.Fatal().Err(err).Msg("blueprint listing failed")
			}
			for _, e := range events {
				l.Info().
					Str("name", e.Name).
					Str("catalog", e.Catalog).
					Float64("time", e.Time).
					Strs("ifos", e.IFOs).
					Msg("event")
			}
		}
		return
	}

	if *zenodoRecord != "" {
		z := fetch.NewZenodoClient(fetch.NewDownloader())
		paths, err := z.DownloadRecord(ctx, *zenodoRecord, *productDir, flag.Args())
		if err != nil {
			l.Fatal().Err(err).Str("record", *zenodoRecord).Msg("zenodo download failed")
		}
		for _, p := range paths {
			l.Info().Str("path", p).Msg("downloaded")
		}
		return
	}

	if *settingsPath == "" {
		l.Fatal().Msg("-settings is required")
	}
	s, err := settings.Load(*settingsPath)
	if err != nil {
		l.Fatal().Err(err).Msg("settings rejected")
	}

	if *tokenPath != "" {
		raw, err := os.ReadFile(*tokenPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", *tokenPath).Msg("token unreadable")
		}
		tok, err := auth.Parse(strings.TrimSpace(string(raw)))
		if err != nil {
			l.Fatal().Err(err).Msg("token rejected")
		}
		if err := tok.CheckRead(time.Now(), auth.ReadScopes...); err != nil {
			l.Fatal().Err(err).Msg("token lacks read scopes")
		}
		l.Info().Str("subject", tok.Subject).Msg("token accepted")
	}

	dets := s.Detectors()
	window := s.Window()
	rep := report.New(window)

	if s.Data.Frames != nil {
		l.Warn().Msg("frame discovery needs a datafind collaborator; skipping frames")
	}
	if s.Data.PSDs != nil {
		l.Warn().Msg("psd extraction needs a pesummary collaborator; skipping psds")
	}

	if s.Data.Calibration != nil {
		svc := calsvc.New(
			s.CalibrationConfig(),
			fetch.NewDownloader(),
			externalPort{what: "frame envelope extraction"},
			externalPort{what: "pesummary metafile reading"},
			calsvc.Config{ProductDir: *productDir},
		)
		outcomes := svc.FetchAll(ctx, dets, window)
		var ok, failed int
		for _, o := range outcomes {
			rep.AddCalibration(o)
			if o.Err != nil {
				failed++
				l.Error().Str("detector", string(o.Detector)).Err(o.Err).Msg("calibration not retrieved")
				continue
			}
			ok++
			l.Info().
				Str("detector", string(o.Detector)).
				Str("source", string(o.Product.Source)).
				Bool("fallback", o.Product.Fallback).
				Str("path", o.Product.Path).
				Msg("calibration retrieved")
		}
		l.Info().Int("ok", ok).Int("failed", failed).Msg("calibration batch done")
	}

	if err := rep.Write(*reportDir); err != nil {
		l.Fatal().Err(err).Msg("report not written")
	}
	l.Info().Str("session", rep.Session()).Str("dir", *reportDir).Msg("report written")
}
