// Package voice maps menu speech transcripts to commands.
package voice

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Command is the action a transcript asks for.
type Command string

const (
	CommandNone  Command = "none"
	CommandStart Command = "start"
	CommandExit  Command = "exit"
)

var (
	startWords = regexp.MustCompile(`\b(start|begin|go)\b`)
	exitWords  = regexp.MustCompile(`\b(exit|quit|end|stop)\b`)

	folder = cases.Fold()
)

// Normalize case-folds and trims a transcript.
func Normalize(transcript string) string {
	return strings.TrimSpace(folder.String(transcript))
}

// MapTranscript returns the command spoken in transcript. Start words win when
// both kinds appear.
func MapTranscript(transcript string) Command {
	t := Normalize(transcript)
	switch {
	case t == "":
		return CommandNone
	case startWords.MatchString(t):
		return CommandStart
	case exitWords.MatchString(t):
		return CommandExit
	default:
		return CommandNone
	}
}
