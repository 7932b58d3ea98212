// Package calibration implements the calibration-source resolution engine:
// given a detector, a GPS window, and user hints it decides which retrieval
// strategy applies, resolves run and version identifiers, and assembles a
// retrieval plan. It is pure computation; executing a plan is the fetch
// layer's job
package calibration

import perr "gwdata/internal/platform/errors"

// Detector identifies an interferometer from the closed set H1, L1, V1, K1
type Detector string

// The known detectors
const (
	H1 Detector = "H1"
	L1 Detector = "L1"
	V1 Detector = "V1"
	K1 Detector = "K1"
)

// Detectors is the closed set of recognized instruments, in canonical order
var Detectors = []Detector{H1, L1, V1, K1}

// ParseDetector validates a detector symbol
func ParseDetector(s string) (Detector, error) {
	switch Detector(s) {
	case H1, L1, V1, K1:
		return Detector(s), nil
	}
	return "", perr.InvalidArgf("unknown detector %q", s)
}

// Valid reports whether d is one of the recognized detectors
func (d Detector) Valid() bool {
	_, err := ParseDetector(string(d))
	return err == nil
}

// Site returns the single-letter site code used in frame file names
func (d Detector) Site() string {
	if d == "" {
		return ""
	}
	return string(d[0])
}

// Collaboration returns the operating collaboration for the detector
func (d Detector) Collaboration() string {
	switch d {
	case H1, L1:
		return "LIGO"
	case V1:
		return "Virgo"
	case K1:
		return "KAGRA"
	}
	return ""
}
