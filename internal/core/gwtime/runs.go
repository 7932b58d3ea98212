package gwtime

import (
	"sort"

	perr "gwdata/internal/platform/errors"
)

// Run is a named observing epoch over a half-open GPS interval [Start, End).
// Calibrated is false for runs that predate calibration uncertainty
// distribution; resolving calibration against them always fails
type Run struct {
	Name       string
	Start      GPS
	End        GPS
	Calibrated bool
}

// Era returns the top-level run family ("O3" for both O3a and O3b).
// The per-detector source defaulting table is keyed by era, not sub-epoch
func (r Run) Era() string {
	if len(r.Name) > 2 {
		return r.Name[:2]
	}
	return r.Name
}

// Contains reports whether t falls inside the run interval
func (r Run) Contains(t GPS) bool { return t >= r.Start && t < r.End }

// runs is the canonical observing run table, ordered and non-overlapping.
// Boundaries follow the GWOSC data release epochs. Gaps between entries are
// real commissioning breaks; times inside them resolve to nothing.
// Built once; never mutated at runtime
var runs = []Run{
	{Name: "O1", Start: 1126051217, End: 1137254417, Calibrated: false},
	{Name: "O2", Start: 1164556817, End: 1187733618, Calibrated: true},
	{Name: "O3a", Start: 1238166018, End: 1253977218, Calibrated: true},
	{Name: "O3b", Start: 1256655618, End: 1269363618, Calibrated: true},
	{Name: "O4a", Start: 1368975618, End: 1389456018, Calibrated: true},
	{Name: "O4b", Start: 1396796418, End: 1422118818, Calibrated: true},
	{Name: "O4c", Start: 1422118818, End: 1447516818, Calibrated: true},
}

// Runs returns a copy of the canonical run table
func Runs() []Run {
	out := make([]Run, len(runs))
	copy(out, runs)
	return out
}

// ResolveRun maps a GPS time onto the observing run containing it.
// Returns ErrorCodeUnmappedEpoch when t precedes O1, follows the last known
// run, or falls inside an inter-run gap
func ResolveRun(t GPS) (Run, error) {
	// first run whose end is beyond t; table is sorted by Start
	i := sort.Search(len(runs), func(i int) bool { return runs[i].End > t })
	if i < len(runs) && runs[i].Contains(t) {
		return runs[i], nil
	}
	return Run{}, perr.UnmappedEpochf("gps %.0f is outside every known observing run", float64(t))
}

// RunByName looks a run up by its epoch name (e.g. "O3a")
func RunByName(name string) (Run, bool) {
	for _, r := range runs {
		if r.Name == name {
			return r, true
		}
	}
	return Run{}, false
}
