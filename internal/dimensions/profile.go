// Package dimensions weights per-chunk conceptual dimensions (novelty, risk, utility, ...)
// according to the active user profile.
package dimensions

import "strings"

// Profile is a known user role. The set is closed; General is the fallback.
type Profile int

const (
	// General is the fallback profile with a minimal dimension set.
	General Profile = iota
	// Researcher emphasizes novelty and technical depth.
	Researcher
	// Business emphasizes market impact and ROI potential.
	Business
	// Legal emphasizes compliance risk and liability.
	Legal
)

// Profiles lists every known profile.
var Profiles = []Profile{General, Researcher, Business, Legal}

// String returns the profile name used in configuration and APIs.
func (p Profile) String() string {
	switch p {
	case General:
		return "general"
	case Researcher:
		return "researcher"
	case Business:
		return "business"
	case Legal:
		return "legal"
	default:
		return "general"
	}
}

// ParseProfile maps a name to a Profile. Unknown or empty names return General and false.
func ParseProfile(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "general":
		return General, true
	case "researcher", "research":
		return Researcher, true
	case "business":
		return Business, true
	case "legal":
		return Legal, true
	default:
		return General, false
	}
}
