// Package judgetest mints verdicts for tests that exercise game flows
// and are not themselves about judging. Production code obtains
// verdicts only from a Judge implementation.
package judgetest

import (
	"context"
	"testing"

	"github.com/codeopoly/codeopoly-server-go/internal/judge"
)

func mint(t testing.TB, passed bool) judge.Verdict {
	t.Helper()
	scripted := &judge.ScriptedJudge{Default: passed}
	verdict, err := scripted.Validate(context.Background(), judge.Submission{ProblemID: "any"})
	if err != nil {
		t.Fatalf("mint verdict: %v", err)
	}
	return verdict
}

// Passing returns a verdict with every case passed.
func Passing(t testing.TB) judge.Verdict {
	return mint(t, true)
}

// Failing returns a verdict with a failed case.
func Failing(t testing.TB) judge.Verdict {
	return mint(t, false)
}
