package uci

import "os/exec"

// wellKnownEngines are binary names probed by DefaultEnginePath, in order.
var wellKnownEngines = []string{"stockfish", "lc0", "ethereal", "komodo"}

// DefaultEnginePath returns the path of a well-known UCI engine found on $PATH.
func DefaultEnginePath() (string, bool) {
	for _, name := range wellKnownEngines {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}
