package calibration

import (
	"testing"

	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
)

func mustRun(t *testing.T, name string) gwtime.Run {
	t.Helper()
	r, ok := gwtime.RunByName(name)
	if !ok {
		t.Fatalf("run %s missing from table", name)
	}
	return r
}

func TestParseSourceType(t *testing.T) {
	for _, s := range []string{"local storage", "frame", "pesummary", "public"} {
		if _, err := ParseSourceType(s); err != nil {
			t.Errorf("ParseSourceType(%q): %v", s, err)
		}
	}
	_, err := ParseSourceType("dcc")
	if !perr.IsCode(err, perr.ErrorCodeInvalidSourceType) {
		t.Fatalf("expected InvalidSourceType, got %v", err)
	}
}

func TestSelectSourceDefaults(t *testing.T) {
	cases := []struct {
		det  Detector
		run  string
		want SourceType
	}{
		{H1, "O2", SourceLocalStorage},
		{H1, "O3a", SourceLocalStorage},
		{H1, "O4a", SourceLocalStorage},
		{L1, "O3b", SourceLocalStorage},
		{L1, "O4c", SourceLocalStorage},
		{V1, "O2", SourceLocalStorage},
		{V1, "O3a", SourceLocalStorage},
		{V1, "O3b", SourceLocalStorage},
		{V1, "O4a", SourceFrame},
		{V1, "O4b", SourceFrame},
	}
	for _, tc := range cases {
		got, err := SelectSource(tc.det, mustRun(t, tc.run), "")
		if err != nil {
			t.Fatalf("SelectSource(%s, %s): %v", tc.det, tc.run, err)
		}
		if got != tc.want {
			t.Errorf("SelectSource(%s, %s) = %s, want %s", tc.det, tc.run, got, tc.want)
		}
	}
}

func TestSelectSourceOverrideWins(t *testing.T) {
	// forcing frame extraction for V1 in O3 contradicts the default and must stick
	got, err := SelectSource(V1, mustRun(t, "O3a"), "frame")
	if err != nil || got != SourceFrame {
		t.Fatalf("override not honored: %v %v", got, err)
	}

	// override even lets K1 through
	got, err = SelectSource(K1, mustRun(t, "O3a"), "pesummary")
	if err != nil || got != SourcePESummary {
		t.Fatalf("K1 with override should resolve: %v %v", got, err)
	}
}

func TestSelectSourceK1NoDefault(t *testing.T) {
	_, err := SelectSource(K1, mustRun(t, "O3a"), "")
	if !perr.IsCode(err, perr.ErrorCodeUnsupportedDetector) {
		t.Fatalf("expected UnsupportedDetector, got %v", err)
	}
	if e, _ := perr.As(err); e.Detector() != "K1" {
		t.Fatalf("outcome should carry the detector")
	}
}

func TestSelectSourceInvalidOverride(t *testing.T) {
	_, err := SelectSource(H1, mustRun(t, "O3a"), "carrier pigeon")
	if !perr.IsCode(err, perr.ErrorCodeInvalidSourceType) {
		t.Fatalf("expected InvalidSourceType, got %v", err)
	}
}

func TestDetectorAttributes(t *testing.T) {
	if H1.Site() != "H" || V1.Site() != "V" {
		t.Fatalf("site codes wrong")
	}
	if H1.Collaboration() != "LIGO" || V1.Collaboration() != "Virgo" || K1.Collaboration() != "KAGRA" {
		t.Fatalf("collaborations wrong")
	}
	if _, err := ParseDetector("G1"); err == nil {
		t.Fatalf("G1 should not parse")
	}
}
