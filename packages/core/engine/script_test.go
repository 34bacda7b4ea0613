package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ScriptStepExportsVariables(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "set_token.sh", "echo token=s3cr3t\necho preparing session\n")
	writeFile(t, tmpDir, "me.nap", `
[request]
url = `+server.URL+`/me

[request.headers]
Authorization = Bearer {{token}}

[assert]
body.auth = Bearer s3cr3t
`)
	playlist := writeFile(t, tmpDir, "session.naplist", `
[steps]
set_token.sh
me.nap
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), playlist)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.Equal(t, []string{"token=s3cr3t", "preparing session"}, results[0].Logs)
	assert.True(t, results[1].Passed)
	assert.Equal(t, "Bearer s3cr3t", results[1].Request.Headers["Authorization"])
}

func TestEngine_ScriptStepFailure(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "fail.sh", "echo starting\necho boom >&2\nexit 3\n")
	writeFile(t, tmpDir, "after.nap", "GET "+server.URL+"/after\n")
	playlist := writeFile(t, tmpDir, "main.naplist", `
[steps]
fail.sh
after.nap
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), playlist)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	require.Error(t, results[0].Error)
	assert.Equal(t, "boom", results[0].Error.Error())
	assert.Equal(t, []string{"starting"}, results[0].Logs)
	assert.True(t, results[1].Passed, "a failed script never stops the run")
}

func TestEngine_FailedScriptExportsNothing(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "leak.sh", "echo token=leaked\nexit 1\n")
	writeFile(t, tmpDir, "use.nap", "GET "+server.URL+"/{{token}}\n")
	playlist := writeFile(t, tmpDir, "main.naplist", `
[steps]
leak.sh
use.nap
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), playlist)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[1].Request.URL, "{{token}}")
}

func TestEngine_PreHookExportsReachOwnRequest(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "fetch_token.sh", "echo token=fresh\n")
	file := writeFile(t, tmpDir, "me.nap", `
[request]
url = `+server.URL+`/me

[request.headers]
Authorization = Bearer {{token}}

[script]
pre = ./fetch_token.sh

[assert]
body.auth = Bearer fresh
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), file)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Contains(t, results[0].Logs, "token=fresh")
}

func TestEngine_PreHookFailureSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "guard.sh", "echo no credentials >&2\nexit 1\n")
	file := writeFile(t, tmpDir, "me.nap", `
[request]
url = `+server.URL+`/me

[script]
pre = ./guard.sh
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), file)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	require.Error(t, results[0].Error)
	assert.Contains(t, results[0].Error.Error(), "pre script")
	assert.Nil(t, results[0].Response)
	assert.Equal(t, int32(0), hits.Load())
}

func TestEngine_PostHookSeesResponse(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "observe.sh", `[ -n "$NAP_FILE" ] || exit 1
[ -n "$NAP_URL" ] || exit 1
[ -n "$NAP_STATUS" ] || exit 1
[ -n "$NAP_DURATION_MS" ] || exit 1
[ -n "$NAP_BODY" ] || exit 1
echo observed=$NAP_STATUS
`)
	file := writeFile(t, tmpDir, "me.nap", `
[request]
url = `+server.URL+`/me

[script]
post = ./observe.sh
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), file)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Contains(t, results[0].Logs, "observed=200")
}

func TestEngine_PostHookFailureKeepsResponse(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "cleanup.sh", "echo cleanup failed >&2\nexit 1\n")
	file := writeFile(t, tmpDir, "me.nap", `
[request]
url = `+server.URL+`/me

[script]
post = ./cleanup.sh

[assert]
status = 200
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), file)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	require.Error(t, results[0].Error)
	assert.Contains(t, results[0].Error.Error(), "post script")
	require.NotNil(t, results[0].Response, "the response survives a cleanup failure")
	require.Len(t, results[0].Assertions, 1)
	assert.True(t, results[0].Assertions[0].Passed)
}

func TestEngine_PostHookExportsPropagateToNextStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"echo": %q}`, r.Header.Get("X-Session"))
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "extract.sh", "echo session=$NAP_STATUS\n")
	writeFile(t, tmpDir, "login.nap", `
[request]
method = POST
url = `+server.URL+`/login

[script]
post = ./extract.sh
`)
	writeFile(t, tmpDir, "profile.nap", `
[request]
url = `+server.URL+`/profile

[request.headers]
X-Session = {{session}}

[assert]
body.echo = 200
`)
	playlist := writeFile(t, tmpDir, "flow.naplist", `
[steps]
login.nap
profile.nap
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), playlist)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.True(t, results[1].Passed)
	assert.Equal(t, "200", results[1].Request.Headers["X-Session"])
}

func TestEngine_HookPathIsInterpolated(t *testing.T) {
	server := echoServer(t)
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "noop.sh", "exit 0\n")
	file := writeFile(t, tmpDir, "me.nap", `
[vars]
hook = ./noop.sh

[request]
url = `+server.URL+`/me

[script]
pre = {{hook}}
`)

	eng := New(nil)
	results, err := eng.Run(context.Background(), file)

	require.NoError(t, err)
	assert.True(t, results[0].Passed)
}
