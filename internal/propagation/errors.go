package propagation

import (
	"errors"
	"fmt"
)

// ErrDecayed is matched by DecayedError.
var ErrDecayed = errors.New("satellite has decayed")

// DecayedError reports that the propagated radius fell below one Earth
// radius at the given time.
type DecayedError struct {
	Minutes float64 // minutes since epoch
	Radius  float64 // km
}

func (e *DecayedError) Error() string {
	return fmt.Sprintf("satellite has decayed at %.3f min from epoch (radius %.1f km)", e.Minutes, e.Radius)
}

func (e *DecayedError) Is(target error) bool { return target == ErrDecayed }

// Model limit codes, numbered as in the reference SGP4 implementation.
const (
	CodeEccentricity = 1 // mean eccentricity out of [0, 1)
	CodeMeanMotion   = 2 // mean motion not positive
	CodePerturbedEcc = 3 // perturbed eccentricity out of [0, 1]
	CodeSemiLatus    = 4 // semi-latus rectum negative
	CodeSubOrbital   = 5 // epoch perigee below the surface
	codeDecayed      = 6
)

var codeText = map[int]string{
	CodeEccentricity: "mean eccentricity out of range",
	CodeMeanMotion:   "mean motion is not positive",
	CodePerturbedEcc: "perturbed eccentricity out of range",
	CodeSemiLatus:    "semi-latus rectum is negative",
	CodeSubOrbital:   "epoch elements are sub-orbital",
}

// ModelError reports that the mean elements left the domain in which the
// SGP4 theory is valid.
type ModelError struct {
	Code    int
	Minutes float64 // minutes since epoch
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("sgp4 error %d at %.3f min from epoch: %s", e.Code, e.Minutes, codeText[e.Code])
}
