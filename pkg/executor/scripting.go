package executor

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/jsengine"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)

// ScriptEngine runs hook scripts on one JS engine, so later scripts see the
// output of earlier ones.
type ScriptEngine struct {
	js        *jsengine.Engine
	scriptDir string // Directory of the current script (for resolving relative paths)
}

// NewScriptEngine creates a new script engine.
func NewScriptEngine(opts jsengine.Options) *ScriptEngine {
	return &ScriptEngine{js: jsengine.New(opts)}
}

// SetVariable sets a global visible to scripts.
func (se *ScriptEngine) SetVariable(name, value string) {
	se.js.SetVariable(name, value)
}

// GetOutput returns the JS output variables.
func (se *ScriptEngine) GetOutput() map[string]interface{} {
	return se.js.GetOutput()
}

// RunScript executes a JavaScript script.
func (se *ScriptEngine) RunScript(ctx context.Context, script string, env map[string]string) error {
	for k, v := range env {
		se.SetVariable(k, v)
	}

	// Pre-define potential env variables as undefined to avoid ReferenceError.
	// Unset variables are then falsy rather than errors.
	for _, name := range envVarPattern.FindAllString(script, -1) {
		se.js.DefineUndefinedIfMissing(name)
	}

	return se.js.RunScript(ctx, script)
}

// RunFile reads and runs a script file. Relative paths resolve against the
// directory of the previous script, if any.
func (se *ScriptEngine) RunFile(ctx context.Context, path string, env map[string]string) error {
	path = se.ResolvePath(path)
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided script
	if err != nil {
		return core.ErrMissingConfiguration.WithMessagef("read script %s", path).WithCause(err)
	}
	se.scriptDir = filepath.Dir(path)
	return se.RunScript(ctx, string(data), env)
}

// ResolvePath resolves a relative path against the script directory.
func (se *ScriptEngine) ResolvePath(path string) string {
	if filepath.IsAbs(path) || se.scriptDir == "" {
		return path
	}
	return filepath.Join(se.scriptDir, path)
}

// ScriptRecord builds the result record of a script run: output.result when
// the script set it, otherwise the whole output object.
func ScriptRecord(output map[string]interface{}) map[string]interface{} {
	if v, ok := output["result"]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
		return map[string]interface{}{"result": v}
	}
	return output
}

// RunScripts runs hook scripts in order on one engine with the given variable
// bindings and returns the result record built from the final output. The
// first failing script stops the run; its record keeps any output.result the
// script set before failing.
func (r *Runner) RunScripts(ctx context.Context, paths []string, bindings map[string]string) (map[string]interface{}, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"run": runID, "action": "script"})

	se := NewScriptEngine(jsengine.Options{Backoffice: r.client})
	var err error
	for i, path := range paths {
		log.WithField("script", path).Info("Running script")
		// Bindings are set once; later scripts see globals as earlier ones left them
		env := bindings
		if i > 0 {
			env = nil
		}
		if err = se.RunFile(ctx, path, env); err != nil {
			log.WithField("script", path).Errorf("Script failed: %v", err)
			break
		}
	}

	output := se.GetOutput()
	record := ScriptRecord(output)
	outcome := OutcomeSuccess
	if err != nil {
		record = failedScriptRecord(output, err)
		outcome = core.CategoryOf(err).String()
	} else if ok, isBool := record["success"].(bool); isBool && !ok {
		outcome = OutcomeFailed
	}

	out := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		out[k] = v
	}
	out["runId"] = runID

	r.metrics.ObserveAction("script", outcome, time.Since(start))
	return out, err
}

// failedScriptRecord keeps the output.result a script set before failing and
// fills in the failure fields it left out.
func failedScriptRecord(output map[string]interface{}, err error) map[string]interface{} {
	record := make(map[string]interface{})
	if _, ok := output["result"]; ok {
		for k, v := range ScriptRecord(output) {
			record[k] = v
		}
	}

	failed := core.FailedResult(err)
	if _, ok := record["success"]; !ok {
		record["success"] = false
	}
	if _, ok := record["error"]; !ok {
		record["error"] = failed.Error
	}
	if _, ok := record["errorCategory"]; !ok {
		record["errorCategory"] = failed.ErrorCategory
	}
	return record
}
