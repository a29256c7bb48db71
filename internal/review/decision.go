package review

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is the reviewer's verdict for one image.
type Action int

const (
	// ActionAll accepts every candidate.
	ActionAll Action = iota + 1
	// ActionNone rejects every candidate.
	ActionNone
	// ActionSubset accepts the candidates listed in Decision.Indices.
	ActionSubset
	// ActionQuit ends the session without touching the current image.
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionAll:
		return "all"
	case ActionNone:
		return "none"
	case ActionSubset:
		return "subset"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Decision is a parsed reviewer answer.
type Decision struct {
	Action  Action
	Indices []int
}

// ErrInvalidInput marks reviewer input that could not be parsed.
var ErrInvalidInput = errors.New("invalid input")

// ParseDecision interprets one line of reviewer input against count
// candidates. Indices are zero based, as printed next to each candidate.
func ParseDecision(input string, count int) (Decision, error) {
	answer := strings.ToLower(strings.TrimSpace(input))
	switch answer {
	case "":
		return Decision{}, fmt.Errorf("%w: empty answer", ErrInvalidInput)
	case "a", "all":
		return Decision{Action: ActionAll}, nil
	case "n", "none":
		return Decision{Action: ActionNone}, nil
	case "q", "quit":
		return Decision{Action: ActionQuit}, nil
	}

	parts := strings.Split(answer, ",")
	seen := make(map[int]struct{}, len(parts))
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %q is not a candidate number", ErrInvalidInput, part)
		}
		if idx < 0 || idx >= count {
			return Decision{}, fmt.Errorf("%w: candidate %d out of range 0-%d", ErrInvalidInput, idx, count-1)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return Decision{}, fmt.Errorf("%w: no candidates selected", ErrInvalidInput)
	}
	return Decision{Action: ActionSubset, Indices: indices}, nil
}
