// Package outcome decodes the flat result mapping printed by the runner script.
package outcome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/schema"
)

// Status is the terminal status reported to a run session.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusErrored
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome kinds written by the runner script.
const (
	KindSuccess           = "success"
	KindFailure           = "failure"
	KindError             = "error"
	KindSkipped           = "skipped"
	KindExpectedFailure   = "expected-failure"
	KindUnexpectedSuccess = "unexpected-success"
	KindSubtestSuccess    = "subtest-success"
	KindSubtestFailure    = "subtest-failure"
)

var statusByKind = map[string]Status{
	KindSuccess:           StatusPassed,
	KindExpectedFailure:   StatusPassed,
	KindSubtestSuccess:    StatusPassed,
	KindFailure:           StatusFailed,
	KindUnexpectedSuccess: StatusFailed,
	KindSubtestFailure:    StatusFailed,
	KindError:             StatusErrored,
	KindSkipped:           StatusSkipped,
}

// Entry is the outcome of a single leaf test.
type Entry struct {
	ID      string
	Kind    string
	Status  Status
	Message string
	Subtest string
	// Duration is zero when the runner reported no timing.
	Duration time.Duration
}

type wireEntry struct {
	Test        *string  `json:"test"`
	Outcome     string   `json:"outcome"`
	Message     *string  `json:"message"`
	Traceback   *string  `json:"traceback"`
	Subtest     *string  `json:"subtest"`
	Duration    *float64 `json:"duration"`     // milliseconds
	ElapsedTime *float64 `json:"elapsed_time"` // microseconds
}

// Decode parses runner output into entries keyed by leaf id. Blank output is
// an empty mapping. Anything that is not a valid mapping fails with
// ReasonMalformedOutput.
func Decode(output string) (map[string]Entry, error) {
	data := bytes.TrimSpace([]byte(output))
	if len(data) == 0 {
		return map[string]Entry{}, nil
	}

	raw, err := schema.Decode(data)
	if err != nil {
		return nil, malformed(err)
	}
	if err := schema.ValidateOutcome(raw); err != nil {
		return nil, malformed(err)
	}

	var wire map[string]wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, malformed(err)
	}

	entries := make(map[string]Entry, len(wire))
	for id, w := range wire {
		entries[id] = Entry{
			ID:       id,
			Kind:     w.Outcome,
			Status:   statusByKind[w.Outcome],
			Message:  message(w),
			Subtest:  deref(w.Subtest),
			Duration: duration(w),
		}
	}
	return entries, nil
}

func message(w wireEntry) string {
	msg := deref(w.Message)
	if sub := deref(w.Subtest); sub != "" && msg != "" {
		msg = sub + ": " + msg
	}
	if tb := strings.TrimRight(deref(w.Traceback), "\n"); tb != "" {
		if msg == "" {
			return tb
		}
		msg += "\n\n" + tb
	}
	return msg
}

func duration(w wireEntry) time.Duration {
	switch {
	case w.Duration != nil:
		return time.Duration(*w.Duration * float64(time.Millisecond))
	case w.ElapsedTime != nil:
		return time.Duration(*w.ElapsedTime * float64(time.Microsecond))
	default:
		return 0
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func malformed(cause error) error {
	be := bridgeerrors.Process(bridgeerrors.ReasonMalformedOutput, "malformed runner output")
	be.Cause = cause
	return be
}
