// Package domain defines the types and interfaces for the frames service
package domain

import (
	"path"
	"strconv"
	"strings"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
)

// Source names where frame URLs are discovered
type Source string

const (
	// SourceGWOSC is the public open-data release
	SourceGWOSC Source = "gwosc"
	// SourcePrivate is a proprietary datafind server
	SourcePrivate Source = "private"
)

// Query is one detector's frame lookup
type Query struct {
	Detector calibration.Detector
	// Site is the single-letter observatory prefix, e.g. "H" for H1
	Site      string
	FrameType string
	Window    gwtime.Window
	Host      string
}

// FrameFile is the metadata encoded in a frame file name,
// OBS-TYPE-START-DURATION.gwf
type FrameFile struct {
	Observatory string
	Type        string
	Start       gwtime.GPS
	Duration    int
	Name        string
}

// ParseFrameName decodes frame metadata from a file name or URL.
// Frame types may themselves contain dashes, so start and duration
// are taken from the right
func ParseFrameName(nameOrURL string) (FrameFile, error) {
	name := path.Base(nameOrURL)
	stem := strings.TrimSuffix(name, path.Ext(name))
	parts := strings.Split(stem, "-")
	if len(parts) < 4 {
		return FrameFile{}, perr.InvalidArgf("frame name %q is not OBS-TYPE-START-DURATION", name)
	}
	dur, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return FrameFile{}, perr.InvalidArgf("frame name %q has non-numeric duration", name)
	}
	start, err := strconv.ParseFloat(parts[len(parts)-2], 64)
	if err != nil {
		return FrameFile{}, perr.InvalidArgf("frame name %q has non-numeric start", name)
	}
	return FrameFile{
		Observatory: parts[0],
		Type:        strings.Join(parts[1:len(parts)-2], "-"),
		Start:       gwtime.GPS(start),
		Duration:    dur,
		Name:        name,
	}, nil
}
