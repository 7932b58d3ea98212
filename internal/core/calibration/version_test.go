package calibration

import (
	"testing"

	perr "gwdata/internal/platform/errors"
)

func TestUniformVersionAppliesToAll(t *testing.T) {
	spec := UniformVersion("C01")
	for _, d := range Detectors {
		v, err := spec.Resolve(d)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", d, err)
		}
		if v != "C01" {
			t.Errorf("Resolve(%s) = %q, want C01", d, v)
		}
	}
}

func TestPerDetectorStrict(t *testing.T) {
	spec := PerDetectorVersions(map[Detector]string{H1: "v2", L1: "v1"})

	if v, err := spec.Resolve(H1); err != nil || v != "v2" {
		t.Fatalf("Resolve(H1) = %q, %v", v, err)
	}

	// no implicit fallback to another detector's entry
	_, err := spec.Resolve(V1)
	if !perr.IsCode(err, perr.ErrorCodeMissingVersion) {
		t.Fatalf("expected MissingVersion, got %v", err)
	}
	if e, _ := perr.As(err); e.Detector() != "V1" {
		t.Fatalf("outcome should carry the detector")
	}
}

func TestZeroSpecFails(t *testing.T) {
	var spec VersionSpec
	if !spec.IsZero() {
		t.Fatalf("zero spec should report IsZero")
	}
	if _, err := spec.Resolve(H1); !perr.IsCode(err, perr.ErrorCodeMissingVersion) {
		t.Fatalf("zero spec should fail with MissingVersion, got %v", err)
	}
}

func TestPerDetectorCopiesInput(t *testing.T) {
	m := map[Detector]string{H1: "v2"}
	spec := PerDetectorVersions(m)
	m[H1] = "mutated"

	if v, _ := spec.Resolve(H1); v != "v2" {
		t.Fatalf("spec should not alias the caller's map, got %q", v)
	}
}
