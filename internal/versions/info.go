package versions

import "upkeep/internal/semver"

// Status classifies the relationship between a package's installed and
// latest known versions.
type Status int

const (
	// StatusUnknown means no latest version could be determined, or the
	// two versions cannot be compared.
	StatusUnknown Status = iota
	// StatusUpToDate means the installed version matches or exceeds the
	// latest release.
	StatusUpToDate
	// StatusUpdateAvailable means a newer release exists.
	StatusUpdateAvailable
	// StatusNotInstalled means the package is absent locally. The latest
	// version is still reported when known.
	StatusNotInstalled
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up to date"
	case StatusUpdateAvailable:
		return "update available"
	case StatusNotInstalled:
		return "not installed"
	default:
		return "unknown"
	}
}

// Info holds the resolved version pair for one package. Empty strings mean
// "absent": no installed copy or no discoverable release.
type Info struct {
	Package   string `json:"package"`
	Installed string `json:"installed,omitempty"`
	Latest    string `json:"latest,omitempty"`
}

// Status classifies the version pair. A missing install wins over a missing
// latest so "not installed" is always reported as such, matching the display
// contract where the latest version is shown alongside when known.
func (i Info) Status() Status {
	if i.Installed == "" {
		return StatusNotInstalled
	}
	if i.Latest == "" {
		return StatusUnknown
	}

	installed, ierr := semver.Parse(i.Installed)
	latest, lerr := semver.Parse(i.Latest)
	if ierr != nil || lerr != nil {
		// Versions outside semver (pip post-releases and the like) can
		// only be compared for equality.
		if i.Installed == i.Latest {
			return StatusUpToDate
		}
		return StatusUnknown
	}

	if latest.Compare(installed) > 0 {
		return StatusUpdateAvailable
	}
	return StatusUpToDate
}
