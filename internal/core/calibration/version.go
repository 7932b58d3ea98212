package calibration

import perr "gwdata/internal/platform/errors"

// VersionSpec is the scalar-or-mapping calibration version configuration,
// resolved once at the configuration boundary: either a single tag applying
// to every detector, or an explicit per-detector map. The zero value is
// "unset" and fails resolution for every detector
type VersionSpec struct {
	uniform     string
	perDetector map[Detector]string
}

// UniformVersion builds a spec where one version tag applies to all detectors
func UniformVersion(v string) VersionSpec { return VersionSpec{uniform: v} }

// PerDetectorVersions builds a spec with an explicit per-detector mapping
func PerDetectorVersions(m map[Detector]string) VersionSpec {
	cp := make(map[Detector]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return VersionSpec{perDetector: cp}
}

// IsZero reports whether no version configuration was supplied
func (s VersionSpec) IsZero() bool { return s.uniform == "" && s.perDetector == nil }

// Resolve returns the effective version for a detector. A mapping missing
// the requested detector fails with MissingVersion rather than falling back
// to any other entry; silently using another detector's calibration version
// would corrupt downstream analyses
func (s VersionSpec) Resolve(d Detector) (string, error) {
	if s.perDetector != nil {
		if v, ok := s.perDetector[d]; ok {
			return v, nil
		}
		return "", perr.WithDetector(
			perr.MissingVersionf("calibration version map has no entry for %s", d),
			string(d))
	}
	if s.uniform != "" {
		return s.uniform, nil
	}
	return "", perr.WithDetector(
		perr.MissingVersionf("no calibration version configured"),
		string(d))
}
