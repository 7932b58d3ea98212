package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	caldom "gwdata/internal/services/calfetch/domain"
)

func buildSample() *Builder {
	b := New(gwtime.Window{Start: 1380000000, End: 1380000100})
	b.AddFrames(calibration.H1, []string{"frames/H-H1_HOFT_C02-1379999744-4096.gwf"})
	b.AddCalibration(caldom.Outcome{
		Detector: calibration.H1,
		Product: &caldom.Product{
			Detector: calibration.H1,
			Source:   calibration.SourceLocalStorage,
			Path:     "/archive/O4a/H1/C01/calibration_uncertainty_H1_1380000000.txt",
			Plan: calibration.Plan{
				Run:     gwtime.Run{Name: "O4a"},
				Version: "C01",
			},
		},
	})
	b.AddCalibration(caldom.Outcome{
		Detector: calibration.K1,
		Err:      perr.UnsupportedDetectorf("K1 has no default source"),
	})
	return b
}

func TestManifestOrderingAndContent(t *testing.T) {
	m := buildSample().Manifest()

	if m.Session == "" {
		t.Fatal("session id missing")
	}
	if len(m.Detectors) != 2 || m.Detectors[0].Detector != "H1" || m.Detectors[1].Detector != "K1" {
		t.Fatalf("detectors = %+v", m.Detectors)
	}
	h1 := m.Detectors[0]
	if h1.Calibration == nil || h1.Calibration.Run != "O4a" || h1.Calibration.Version != "C01" {
		t.Fatalf("H1 calibration = %+v", h1.Calibration)
	}
	if len(h1.Frames) != 1 {
		t.Fatalf("H1 frames = %v", h1.Frames)
	}
	k1 := m.Detectors[1]
	if k1.Error == nil || k1.Error.Code != perr.ErrorCodeUnsupportedDetector {
		t.Fatalf("K1 error = %+v", k1.Error)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	b := buildSample()
	if err := b.Write(filepath.Join(dir, "report")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "report", "manifest.json"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Session != b.Session() || m.GPSStart != 1380000000 {
		t.Fatalf("manifest = %+v", m)
	}

	html, err := os.ReadFile(filepath.Join(dir, "report", "index.html"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	page := string(html)
	if !strings.Contains(page, "<h2>H1</h2>") || !strings.Contains(page, b.Session()) {
		t.Fatalf("index = %s", page)
	}
}
