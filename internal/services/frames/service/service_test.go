package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
	dom "gwdata/internal/services/frames/domain"
)

type stubDiscovery struct {
	urls map[calibration.Detector][]string
	got  []dom.Query
}

func (s *stubDiscovery) FindURLs(_ context.Context, q dom.Query) ([]string, error) {
	s.got = append(s.got, q)
	return s.urls[q.Detector], nil
}

type copyFetch struct{}

func (copyFetch) Download(_ context.Context, url, dir string) (string, error) {
	name := filepath.Base(url)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("frame"), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func TestParseFrameName(t *testing.T) {
	ff, err := dom.ParseFrameName("https://gwosc.org/a/b/H-H1_HOFT_C02-1126256640-4096.gwf")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ff.Observatory != "H" || ff.Type != "H1_HOFT_C02" || ff.Start != 1126256640 || ff.Duration != 4096 {
		t.Fatalf("parsed = %+v", ff)
	}

	// dashes inside the frame type stay with the type
	ff, err = dom.ParseFrameName("V-HoftAR1-extra-1396796418-32.gwf")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ff.Type != "HoftAR1-extra" || ff.Duration != 32 {
		t.Fatalf("parsed = %+v", ff)
	}

	if _, err := dom.ParseFrameName("nonsense.gwf"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestQueriesPrivateNeedsTypes(t *testing.T) {
	svc := New(&stubDiscovery{}, copyFetch{}, Config{
		Source: dom.SourcePrivate,
		Types:  map[string]string{"H1": "H1_HOFT_C00"},
	})
	w := gwtime.Window{Start: 1264316100, End: 1264316200}

	qs, err := svc.Queries([]calibration.Detector{calibration.H1}, w)
	if err != nil {
		t.Fatalf("Queries: %v", err)
	}
	if qs[0].FrameType != "H1_HOFT_C00" || qs[0].Site != "H" || qs[0].Host != defaultHost {
		t.Fatalf("query = %+v", qs[0])
	}

	if _, err := svc.Queries([]calibration.Detector{calibration.L1}, w); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
}

func TestDiscoverFiltersByDuration(t *testing.T) {
	disc := &stubDiscovery{urls: map[calibration.Detector][]string{
		calibration.H1: {
			"H-H1_HOFT_C02-1126256640-4096.gwf",
			"H-H1_HOFT_C02-1126260736-32.gwf",
		},
	}}
	svc := New(disc, copyFetch{}, Config{Duration: 4096})
	urls, err := svc.Discover(context.Background(), []calibration.Detector{calibration.H1},
		gwtime.Window{Start: 1126259462, End: 1126259470})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(urls[calibration.H1]) != 1 || !strings.Contains(urls[calibration.H1][0], "-4096.gwf") {
		t.Fatalf("urls = %v", urls[calibration.H1])
	}
}

func TestMaterializeWritesCache(t *testing.T) {
	dir := t.TempDir()
	disc := &stubDiscovery{urls: map[calibration.Detector][]string{
		calibration.L1: {"L-L1_HOFT_C02-1187008512-4096.gwf"},
	}}
	svc := New(disc, copyFetch{}, Config{
		FrameDir: filepath.Join(dir, "frames"),
		CacheDir: filepath.Join(dir, "cache"),
	})

	files, err := svc.Materialize(context.Background(), []calibration.Detector{calibration.L1},
		gwtime.Window{Start: 1187008882, End: 1187008900})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(files[calibration.L1]) != 1 {
		t.Fatalf("files = %v", files)
	}

	f, err := os.Open(filepath.Join(dir, "cache", "L1.cache"))
	if err != nil {
		t.Fatalf("cache file: %v", err)
	}
	defer f.Close()
	raw, _ := io.ReadAll(f)
	line := strings.TrimSpace(string(raw))
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		t.Fatalf("cache line = %q", line)
	}
	if fields[0] != "L" || fields[1] != "L1_HOFT_C02" || fields[2] != "1187008512" || fields[3] != "4096" {
		t.Fatalf("cache fields = %v", fields)
	}
	if !strings.HasPrefix(fields[4], "file://localhost/") {
		t.Fatalf("cache path = %q", fields[4])
	}
}
