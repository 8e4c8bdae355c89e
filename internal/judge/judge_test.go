package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHTTPJudgeAllPassed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub Submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "two-sum", sub.ProblemID)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []Result{
				{Passed: true, Expected: "3", Actual: "3"},
				{Passed: true, Expected: "7", Actual: "7"},
			},
		})
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, time.Second, zaptest.NewLogger(t))
	verdict, err := j.Validate(context.Background(), Submission{ProblemID: "two-sum", Language: "go"})
	require.NoError(t, err)

	assert.True(t, verdict.AllPassed())
	assert.Len(t, verdict.Results(), 2)
}

func TestHTTPJudgeSingleFailureFailsVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []Result{
				{Passed: true, Expected: "3", Actual: "3"},
				{Passed: false, Expected: "7", Actual: "8", Error: "off by one"},
			},
		})
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, time.Second, zaptest.NewLogger(t))
	verdict, err := j.Validate(context.Background(), Submission{ProblemID: "two-sum"})
	require.NoError(t, err)

	assert.False(t, verdict.AllPassed())
}

func TestHTTPJudgeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, time.Second, zaptest.NewLogger(t))
	_, err := j.Validate(context.Background(), Submission{ProblemID: "two-sum"})
	assert.Error(t, err)
}

func TestEmptyResultsNeverAuthorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []Result{}})
	}))
	defer srv.Close()

	j := NewHTTPJudge(srv.URL, time.Second, zaptest.NewLogger(t))
	verdict, err := j.Validate(context.Background(), Submission{})
	require.NoError(t, err)

	assert.False(t, verdict.AllPassed(), "a verdict with no cases must not authorize anything")
}

func TestScriptedJudge(t *testing.T) {
	j := &ScriptedJudge{Outcomes: map[string]bool{"easy": true}}

	verdict, err := j.Validate(context.Background(), Submission{ProblemID: "easy"})
	require.NoError(t, err)
	assert.True(t, verdict.AllPassed())

	verdict, err = j.Validate(context.Background(), Submission{ProblemID: "hard"})
	require.NoError(t, err)
	assert.False(t, verdict.AllPassed())
}

func TestScriptedJudgeDefault(t *testing.T) {
	j := &ScriptedJudge{Outcomes: map[string]bool{"hard": false}, Default: true}

	verdict, err := j.Validate(context.Background(), Submission{ProblemID: "unscripted"})
	require.NoError(t, err)
	assert.True(t, verdict.AllPassed())

	verdict, err = j.Validate(context.Background(), Submission{ProblemID: "hard"})
	require.NoError(t, err)
	assert.False(t, verdict.AllPassed())
}
