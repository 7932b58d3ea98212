// Package settings loads and validates the YAML analysis settings document
// that drives a fetch batch
package settings

import (
	"os"

	"gopkg.in/yaml.v3"

	"gwdata/internal/core/calibration"
	"gwdata/internal/core/gwtime"
	perr "gwdata/internal/platform/errors"
)

// Settings is the top-level document
type Settings struct {
	Interferometers []string `yaml:"interferometers" validate:"required,min=1,dive,oneof=H1 L1 V1 K1"`
	Time            TimeSpec `yaml:"time" validate:"required"`
	Data            DataSpec `yaml:"data"`
}

// TimeSpec is the GPS window of interest
type TimeSpec struct {
	Start    float64 `yaml:"start" validate:"required,gt=0"`
	End      float64 `yaml:"end" validate:"required,gtfield=Start"`
	Duration int     `yaml:"duration" validate:"omitempty,gt=0"`
}

// DataSpec names the data products to retrieve
type DataSpec struct {
	Frames      *FramesSpec      `yaml:"frames"`
	Calibration *CalibrationSpec `yaml:"calibration"`
	PSDs        *PSDSpec         `yaml:"psds"`
}

// FramesSpec configures strain frame retrieval
type FramesSpec struct {
	// Source picks public (gwosc) or proprietary (private) frame discovery
	Source string `yaml:"source" validate:"omitempty,oneof=gwosc private"`
	// Types maps detector to the frame type to query (private source)
	Types map[string]string `yaml:"types" validate:"omitempty,dive,keys,oneof=H1 L1 V1 K1,endkeys,required"`
	// Host is the datafind server for private discovery
	Host string `yaml:"host"`
	// Duration filters candidate frame files by length in seconds
	Duration int `yaml:"duration" validate:"omitempty,gt=0"`
}

// CalibrationSpec configures calibration envelope retrieval; it maps onto
// calibration.Config after validation
type CalibrationSpec struct {
	Source    string            `yaml:"source" validate:"omitempty,oneof='local storage' frame pesummary public"`
	Version   VersionNode       `yaml:"version"`
	Directory string            `yaml:"directory"`
	Metafile  string            `yaml:"metafile"`
	Label     string            `yaml:"label"`
	Channels  map[string]string `yaml:"channels" validate:"omitempty,dive,keys,oneof=H1 L1 V1 K1,endkeys,required"`
	Types     map[string]string `yaml:"frame types" validate:"omitempty,dive,keys,oneof=H1 L1 V1 K1,endkeys,required"`
}

// PSDSpec configures PSD extraction from a PESummary metafile
type PSDSpec struct {
	Metafile string `yaml:"metafile" validate:"required"`
	Label    string `yaml:"label"`
}

// Load reads, decodes, and validates a settings document
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "settings file %s", path)
	}
	return Parse(raw)
}

// Parse decodes and validates a settings document from memory
func Parse(raw []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "settings document is not valid YAML")
	}
	if err := validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Detectors converts the interferometer list to typed detectors.
// Validation already pinned them to the closed set
func (s *Settings) Detectors() []calibration.Detector {
	out := make([]calibration.Detector, 0, len(s.Interferometers))
	for _, ifo := range s.Interferometers {
		out = append(out, calibration.Detector(ifo))
	}
	return out
}

// Window returns the GPS window of interest
func (s *Settings) Window() gwtime.Window {
	return gwtime.Window{Start: gwtime.GPS(s.Time.Start), End: gwtime.GPS(s.Time.End)}
}

// CalibrationConfig maps the document onto the resolver's batch config
func (s *Settings) CalibrationConfig() calibration.Config {
	cs := s.Data.Calibration
	if cs == nil {
		return calibration.Config{}
	}
	cfg := calibration.Config{
		Source:        cs.Source,
		Versions:      cs.Version.Spec(),
		ArchiveDir:    cs.Directory,
		Metafile:      cs.Metafile,
		AnalysisLabel: cs.Label,
	}
	if len(cs.Channels) > 0 {
		cfg.ChannelPrefixes = make(map[calibration.Detector]string, len(cs.Channels))
		for k, v := range cs.Channels {
			cfg.ChannelPrefixes[calibration.Detector(k)] = v
		}
	}
	if len(cs.Types) > 0 {
		cfg.FrameTypes = make(map[calibration.Detector]string, len(cs.Types))
		for k, v := range cs.Types {
			cfg.FrameTypes[calibration.Detector(k)] = v
		}
	}
	return cfg
}
