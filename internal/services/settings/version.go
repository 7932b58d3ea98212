package settings

import (
	"gopkg.in/yaml.v3"

	"gwdata/internal/core/calibration"
	perr "gwdata/internal/platform/errors"
)

// VersionNode is the scalar-or-mapping calibration version value as it
// appears in YAML. The dynamic shape is settled here, at the configuration
// boundary, so the resolver only ever sees a typed VersionSpec
type VersionNode struct {
	spec calibration.VersionSpec
}

// Spec returns the decoded version spec (zero when the node was absent)
func (n VersionNode) Spec() calibration.VersionSpec { return n.spec }

// UnmarshalYAML accepts either a bare string or a detector-to-version map
func (n *VersionNode) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v string
		if err := value.Decode(&v); err != nil {
			return err
		}
		n.spec = calibration.UniformVersion(v)
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := value.Decode(&m); err != nil {
			return err
		}
		byDet := make(map[calibration.Detector]string, len(m))
		for k, v := range m {
			d, err := calibration.ParseDetector(k)
			if err != nil {
				return perr.Validationf("calibration version map key %q is not a detector", k)
			}
			byDet[d] = v
		}
		n.spec = calibration.PerDetectorVersions(byDet)
		return nil
	default:
		return perr.Validationf("calibration version must be a string or a detector map")
	}
}
