package model

import "fmt"

// Verdict is the judge's coarse classification of a submission's outcome.
// The set is closed: an unknown verdict string from the judge is an error,
// never silently mapped.
type Verdict string

const (
	VerdictAccepted          Verdict = "AC"
	VerdictWrongAnswer       Verdict = "WA"
	VerdictTimeLimitExceeded Verdict = "TLE"
	VerdictRuntimeError      Verdict = "RTE"
	VerdictCompileError      Verdict = "CE"
)

// StatusForVerdict maps a judge verdict to the terminal submission status.
func StatusForVerdict(v Verdict) (SubmissionStatus, error) {
	switch v {
	case VerdictAccepted:
		return StatusAccepted, nil
	case VerdictWrongAnswer:
		return StatusWrongAnswer, nil
	case VerdictTimeLimitExceeded:
		return StatusTimeLimitExceeded, nil
	case VerdictRuntimeError:
		return StatusRuntimeError, nil
	case VerdictCompileError:
		return StatusCompilationError, nil
	default:
		return "", fmt.Errorf("unknown judge verdict %q", string(v))
	}
}

// RunsTestCases reports whether the judge executed test cases for this
// verdict. A compile error runs none, so no per-case rows exist for it.
func (v Verdict) RunsTestCases() bool {
	return v != VerdictCompileError
}
