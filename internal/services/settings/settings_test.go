package settings

import (
	"os"
	"path/filepath"
	"testing"

	"gwdata/internal/core/calibration"
	perr "gwdata/internal/platform/errors"
)

const docScalarVersion = `
interferometers: [H1, L1]
time:
  start: 1264316100
  end: 1264316200
data:
  calibration:
    source: local storage
    version: C01
    directory: /archive/cal
`

const docMappedVersion = `
interferometers: [H1, L1, V1]
time:
  start: 1187008800
  end: 1187008900
data:
  calibration:
    version:
      H1: v2
      L1: v1
    channels:
      V1: "V1:Hrec_hoftRepro2A_U02"
  frames:
    source: gwosc
    duration: 4096
`

func TestParseScalarVersion(t *testing.T) {
	s, err := Parse([]byte(docScalarVersion))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := s.CalibrationConfig()
	if cfg.Source != "local storage" {
		t.Fatalf("source = %q", cfg.Source)
	}
	v, err := cfg.Versions.Resolve(calibration.H1)
	if err != nil || v != "C01" {
		t.Fatalf("resolve H1 = %q, %v", v, err)
	}
	v, err = cfg.Versions.Resolve(calibration.V1)
	if err != nil || v != "C01" {
		t.Fatalf("scalar version should cover every detector, got %q, %v", v, err)
	}
	if cfg.ArchiveDir != "/archive/cal" {
		t.Fatalf("archive dir = %q", cfg.ArchiveDir)
	}
}

func TestParseMappedVersion(t *testing.T) {
	s, err := Parse([]byte(docMappedVersion))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := s.CalibrationConfig()
	v, err := cfg.Versions.Resolve(calibration.H1)
	if err != nil || v != "v2" {
		t.Fatalf("resolve H1 = %q, %v", v, err)
	}
	v, err = cfg.Versions.Resolve(calibration.L1)
	if err != nil || v != "v1" {
		t.Fatalf("resolve L1 = %q, %v", v, err)
	}
	if _, err := cfg.Versions.Resolve(calibration.V1); !perr.IsCode(err, perr.ErrorCodeMissingVersion) {
		t.Fatalf("V1 absent from map should be missing version, got %v", err)
	}
	if got := cfg.ChannelPrefixes[calibration.V1]; got != "V1:Hrec_hoftRepro2A_U02" {
		t.Fatalf("V1 channel = %q", got)
	}
}

func TestParseRejectsUnknownDetectorInVersionMap(t *testing.T) {
	doc := `
interferometers: [H1]
time:
  start: 1
  end: 2
data:
  calibration:
    version:
      G1: v0
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for unknown detector key")
	}
}

func TestParseRejectsBadWindow(t *testing.T) {
	doc := `
interferometers: [H1]
time:
  start: 100
  end: 50
`
	_, err := Parse([]byte(doc))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRejectsUnknownInterferometer(t *testing.T) {
	doc := `
interferometers: [H1, G1]
time:
  start: 1
  end: 2
`
	if _, err := Parse([]byte(doc)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRejectsBadSource(t *testing.T) {
	doc := `
interferometers: [H1]
time:
  start: 1
  end: 2
data:
  calibration:
    source: carrier pigeon
`
	if _, err := Parse([]byte(doc)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDetectorsAndWindow(t *testing.T) {
	s, err := Parse([]byte(docScalarVersion))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dets := s.Detectors()
	if len(dets) != 2 || dets[0] != calibration.H1 || dets[1] != calibration.L1 {
		t.Fatalf("detectors = %v", dets)
	}
	w := s.Window()
	if w.Start != 1264316100 || w.End != 1264316200 {
		t.Fatalf("window = %+v", w)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte(docScalarVersion), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing file should be not found, got %v", err)
	}
}
