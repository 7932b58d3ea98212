// Package domain defines the types and interfaces for the calfetch service
package domain

import (
	"gwdata/internal/core/calibration"
)

// Product is one detector's materialized calibration uncertainty envelope
type Product struct {
	Detector calibration.Detector
	Source   calibration.SourceType
	// Path is the local file holding the envelope
	Path string
	// Fallback is set when the product came from a retry strategy rather
	// than the planned source
	Fallback bool
	Plan     calibration.Plan
}

// Outcome pairs a detector with either its product or the error that
// stopped retrieval. Per-detector failures never abort the batch
type Outcome struct {
	Detector calibration.Detector
	Product  *Product
	Err      error
}
