// Package judge wraps the external coding-problem checker. The checker
// is a black box: it runs a submission against test cases and reports
// pass/fail per case. The engine only ever consumes the aggregate
// verdict; it never inspects code content.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TestCase is one input/expected pair for a coding problem.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Submission is a player's attempt at a coding problem.
type Submission struct {
	ProblemID string     `json:"problem_id"`
	Language  string     `json:"language"`
	Code      string     `json:"code"`
	TestCases []TestCase `json:"test_cases"`
}

// Result is the outcome of one test case.
type Result struct {
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

// Verdict is the aggregate outcome of a validation run. Its fields are
// unexported so a verdict can only come out of a Judge: nothing else in
// the process can fabricate an authorization.
type Verdict struct {
	results   []Result
	allPassed bool
}

func newVerdict(results []Result) Verdict {
	v := Verdict{
		results:   append([]Result(nil), results...),
		allPassed: len(results) > 0,
	}
	for _, r := range results {
		if !r.Passed {
			v.allPassed = false
			break
		}
	}
	return v
}

// AllPassed reports whether every test case passed. This is the sole
// purchase/upgrade/duel authorization signal.
func (v Verdict) AllPassed() bool {
	return v.allPassed
}

// Results returns the per-case outcomes for display.
func (v Verdict) Results() []Result {
	out := make([]Result, len(v.results))
	copy(out, v.results)
	return out
}

// Judge validates submissions. Implementations are invoked server-side
// only; a client assertion is never accepted in its place.
type Judge interface {
	Validate(ctx context.Context, sub Submission) (Verdict, error)
}

// HTTPJudge calls a remote checker service over HTTP.
type HTTPJudge struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPJudge creates a judge client for the given endpoint.
func NewHTTPJudge(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPJudge {
	return &HTTPJudge{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Validate posts the submission to the checker and decodes the
// per-case results.
func (j *HTTPJudge) Validate(ctx context.Context, sub Submission) (Verdict, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Verdict{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("call judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Verdict{}, fmt.Errorf("decode judge response: %w", err)
	}

	verdict := newVerdict(payload.Results)
	if j.logger != nil {
		j.logger.Debug("judge verdict",
			zap.String("problem_id", sub.ProblemID),
			zap.String("language", sub.Language),
			zap.Int("cases", len(payload.Results)),
			zap.Bool("all_passed", verdict.AllPassed()),
		)
	}
	return verdict, nil
}

// ScriptedJudge returns pre-arranged verdicts, keyed by problem id.
// Problems absent from Outcomes resolve to Default. Used in tests and
// local development.
type ScriptedJudge struct {
	Outcomes map[string]bool
	Default  bool
}

// Validate returns a one-case verdict according to the script.
func (j *ScriptedJudge) Validate(_ context.Context, sub Submission) (Verdict, error) {
	passed, ok := j.Outcomes[sub.ProblemID]
	if !ok {
		passed = j.Default
	}
	result := Result{Passed: passed, Expected: "ok"}
	if passed {
		result.Actual = "ok"
	} else {
		result.Actual = "wrong answer"
	}
	return newVerdict([]Result{result}), nil
}
