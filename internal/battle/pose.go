package battle

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	// ConfirmThreshold is the confidence a sample must exceed to confirm a pose.
	ConfirmThreshold = 0.8
	// HintThreshold is the confidence above which a UI shows the live label.
	HintThreshold = 0.5
)

// PoseLevel is the display tier of a pose sample.
type PoseLevel string

const (
	PoseLevelNone      PoseLevel = "none"
	PoseLevelHint      PoseLevel = "hint"
	PoseLevelConfirmed PoseLevel = "confirmed"
)

var poseSeparators = strings.NewReplacer("-", "", "_", "", " ", "")

// normalizePose case-folds a label and strips separators so "T-Pose" and "tpose" compare equal.
func normalizePose(label string) string {
	return poseSeparators.Replace(cases.Fold().String(strings.TrimSpace(label)))
}

// PoseMatches reports whether a classifier label satisfies the required pose.
// The normalized label must contain the required pose. A label contained in the
// required pose only counts when it is as long as the pose, so fragments such as
// "s" or "pose" never confirm. Empty labels never match.
func PoseMatches(required, label string) bool {
	r, l := normalizePose(required), normalizePose(label)
	if r == "" || l == "" {
		return false
	}
	if strings.Contains(l, r) {
		return true
	}
	return len(l) >= len(r) && strings.Contains(r, l)
}

// PoseAccepted is the confirmation predicate of the pose gate.
func PoseAccepted(required, label string, confidence float64) bool {
	return confidence > ConfirmThreshold && PoseMatches(required, label)
}

// ClassifyPose returns the display tier for a sample against the required pose.
func ClassifyPose(required, label string, confidence float64) PoseLevel {
	switch {
	case PoseAccepted(required, label, confidence):
		return PoseLevelConfirmed
	case confidence > HintThreshold:
		return PoseLevelHint
	default:
		return PoseLevelNone
	}
}
