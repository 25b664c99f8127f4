package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/backoffice-runner/pkg/backoffice"
	"github.com/devicelab-dev/backoffice-runner/pkg/config"
	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/jsengine"
	"github.com/devicelab-dev/backoffice-runner/pkg/metrics"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hook.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestScriptEngine_UndefinedEnvVarsAreFalsy(t *testing.T) {
	se := NewScriptEngine(jsengine.Options{})

	err := se.RunScript(context.Background(), `
		output.scenario = FAILED_SCENARIO || 'Unknown';
		output.account = myAccount;
	`, map[string]string{"myAccount": "mcm"})
	require.NoError(t, err)

	out := se.GetOutput()
	assert.Equal(t, "Unknown", out["scenario"])
	assert.Equal(t, "mcm", out["account"])
}

func TestScriptEngine_RunFileResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "first.js"), []byte(`output.step = 1`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.js"), []byte(`output.step = output.step + 1`), 0644))

	se := NewScriptEngine(jsengine.Options{})
	require.NoError(t, se.RunFile(context.Background(), filepath.Join(dir, "first.js"), nil))
	require.NoError(t, se.RunFile(context.Background(), "second.js", nil))

	assert.Equal(t, int64(2), se.GetOutput()["step"])
}

func TestScriptEngine_RunFileMissing(t *testing.T) {
	se := NewScriptEngine(jsengine.Options{})
	err := se.RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.js"), nil)

	assert.ErrorIs(t, err, core.ErrMissingConfiguration)
}

func TestScriptRecord(t *testing.T) {
	obj := map[string]interface{}{"success": true}
	assert.Equal(t, obj, ScriptRecord(map[string]interface{}{"result": obj, "other": 1}))
	assert.Equal(t, map[string]interface{}{"result": "ok"}, ScriptRecord(map[string]interface{}{"result": "ok"}))
	assert.Equal(t, map[string]interface{}{"a": 1}, ScriptRecord(map[string]interface{}{"a": 1}))
}

func TestRunner_RunScript(t *testing.T) {
	var gotCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
	})
	mux.HandleFunc("/settings/registers/deactivate", func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(`{"done":true}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	rec := metrics.New()
	client := backoffice.NewClient(backoffice.Options{HTTPClient: server.Client()})
	runner := New(config.Config{}, client, rec)

	path := writeScript(t, `
		var cookie = backoffice.login(WEB_URL, myEmail, myPassword);
		var resp = http.post(WEB_URL + '/settings/registers/deactivate', {
			headers: { Cookie: cookie },
			body: { registerId: myRegisterId }
		});
		output.result = { status: resp.status, data: resp.json, success: resp.ok };
	`)

	record, err := runner.RunScripts(context.Background(), []string{path}, map[string]string{
		"WEB_URL":      server.URL,
		"myEmail":      "qa@example.test",
		"myPassword":   "secret",
		"myRegisterId": "19",
	})
	require.NoError(t, err)

	assert.Equal(t, "sid=abc", gotCookie)
	assert.Equal(t, true, record["success"])
	assert.Equal(t, int64(200), record["status"])
	assert.NotEmpty(t, record["runId"])
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Actions().WithLabelValues("script", OutcomeSuccess)))
}

func TestRunner_RunScriptError(t *testing.T) {
	runner := New(config.Config{}, backoffice.NewClient(backoffice.Options{}), nil)
	path := writeScript(t, `throw new Error("boom")`)

	record, err := runner.RunScripts(context.Background(), []string{path}, nil)
	require.Error(t, err)

	assert.Equal(t, false, record["success"])
	assert.Contains(t, record["error"], "boom")
	assert.Equal(t, "request", record["errorCategory"])
}

func TestRunner_RunScriptErrorKeepsResult(t *testing.T) {
	runner := New(config.Config{}, backoffice.NewClient(backoffice.Options{}), nil)
	path := writeScript(t, `
		var error = new Error("Product 'Latte' not found");
		output.result = { success: false, error: error.message, productName: "Latte" };
		throw error;
	`)

	record, err := runner.RunScripts(context.Background(), []string{path}, nil)
	require.Error(t, err)

	assert.Equal(t, false, record["success"])
	assert.Equal(t, "Product 'Latte' not found", record["error"])
	assert.Equal(t, "Latte", record["productName"])
	assert.Equal(t, "request", record["errorCategory"])
	assert.NotEmpty(t, record["runId"])
}

func TestRunner_RunScriptsSharesEngine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hooks"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks", "login.js"),
		[]byte(`output.cookie = "sid=" + myAccount;`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks", "report.js"),
		[]byte(`output.result = { success: true, cookie: output.cookie };`), 0644))

	runner := New(config.Config{}, backoffice.NewClient(backoffice.Options{}), nil)
	record, err := runner.RunScripts(context.Background(),
		[]string{filepath.Join(dir, "hooks", "login.js"), "report.js"},
		map[string]string{"myAccount": "mcm"})
	require.NoError(t, err)

	assert.Equal(t, true, record["success"])
	assert.Equal(t, "sid=mcm", record["cookie"])
}

func TestRunner_RunScriptsStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fail.js"), []byte(`throw new Error("first")`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "after.js"), []byte(`output.ran = true`), 0644))

	runner := New(config.Config{}, backoffice.NewClient(backoffice.Options{}), nil)
	record, err := runner.RunScripts(context.Background(),
		[]string{filepath.Join(dir, "fail.js"), filepath.Join(dir, "after.js")}, nil)
	require.Error(t, err)

	assert.Contains(t, record["error"], "first")
	assert.NotContains(t, record, "ran")
}
