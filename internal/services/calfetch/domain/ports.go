package domain

import (
	"context"

	"gwdata/internal/core/calibration"
)

// DownloaderPort fetches a URL into a directory and returns the local path
type DownloaderPort interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// EnvelopeExtractorPort pulls a calibration uncertainty envelope out of a
// frame file channel set. Frame decoding is external
type EnvelopeExtractorPort interface {
	ExtractEnvelope(ctx context.Context, plan calibration.Plan) (string, error)
}

// MetafileReaderPort pulls a named analysis's calibration table out of a
// PESummary metafile. HDF5 parsing is external
type MetafileReaderPort interface {
	ReadCalibration(ctx context.Context, metafile, label string, det calibration.Detector) (string, error)
}
