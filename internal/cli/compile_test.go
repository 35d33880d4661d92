package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/compiler"
	"github.com/roach88/pansql/internal/config"
	"github.com/roach88/pansql/internal/diag"
)

const salesDictionary = `name: sales
streams:
  - name: Orders
    fields:
      - name: id
        type: int
      - name: total
        type: double?
`

const ordersScript = `load sales from 'dictionaries/sales.pansync'
open src as Sqlite for read with sales, 'sales.db'
stream orders as sales.Orders
select id, total from orders where id > 10
`

// newProject writes a project directory and clears the environment
// overrides of the project file.
func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv(config.EnvOutput, "")
	t.Setenv(config.EnvCache, "")

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompile_WritesScripts(t *testing.T) {
	dir := newProject(t, map[string]string{
		"dictionaries/sales.pansync": salesDictionary,
		"orders.pansql":              ordersScript,
		"hello.pansql":               "select 'hello' as greeting",
	})

	out, _, err := execute(t, "compile", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 2 script(s)")
	assert.Contains(t, out, "orders.pansql → "+filepath.Join(dir, "out", "orders"))

	for _, name := range []string{MainFile, ProjectFile, ConnectorsFile} {
		_, err := os.Stat(filepath.Join(dir, "out", "orders", name))
		assert.NoError(t, err, name)
	}
	code, err := os.ReadFile(filepath.Join(dir, "out", "hello", MainFile))
	require.NoError(t, err)
	assert.Contains(t, string(code), "package main")
}

func TestCompile_Patterns(t *testing.T) {
	dir := newProject(t, map[string]string{
		"a.pansql": "select 1 as one",
		"b.pansql": "select 2 as two",
	})
	outDir := filepath.Join(t.TempDir(), "gen")

	_, _, err := execute(t, "compile", "-C", dir, "-o", outDir, "b.pansql")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(outDir, "b"))
	assert.NoDirExists(t, filepath.Join(outDir, "a"))
}

func TestCompile_ProjectFile(t *testing.T) {
	dir := newProject(t, map[string]string{
		config.FileName:        `output: "build", scripts: ["etl/*.pansql"]`,
		"etl/load.pansql":      "select 1 as one",
		"ignored.pansql":       "this is not PanSQL",
		"other/ignored.pansql": "select 2 as two",
	})

	_, _, err := execute(t, "compile", "-C", dir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "build", "load"))
}

func TestCompile_Failures(t *testing.T) {
	dir := newProject(t, map[string]string{
		"good.pansql": "select 1 as one",
		"bad.pansql":  "select\n  missing as x",
	})

	out, _, err := execute(t, "compile", "-C", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 script(s) failed")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "bad.pansql:2:3")
	assert.Contains(t, out, "E102: ")

	// The script that compiled is still written.
	assert.DirExists(t, filepath.Join(dir, "out", "good"))
}

func TestCompile_FailuresJSON(t *testing.T) {
	dir := newProject(t, map[string]string{"bad.pansql": "select 1 +"})

	out, _, err := execute(t, "compile", "-C", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   []Report  `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "bad.pansql", resp.Data[0].File)
	require.NotNil(t, resp.Data[0].Error)
	assert.Equal(t, "E001", resp.Data[0].Error.Code)
}

func TestCompile_NoScripts(t *testing.T) {
	dir := newProject(t, nil)

	out, _, err := execute(t, "compile", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoScripts)
	assert.Contains(t, out, "matches no files")
}

func TestCompile_InvalidProjectFile(t *testing.T) {
	dir := newProject(t, map[string]string{config.FileName: `output: 42`})

	out, _, err := execute(t, "compile", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeConfig)
	assert.Contains(t, out, "Error [C002]")
}

func TestCompile_Cache(t *testing.T) {
	dir := newProject(t, map[string]string{
		config.FileName:              `cache: ".pansql/cache.db"`,
		"dictionaries/sales.pansync": salesDictionary,
		"orders.pansql":              ordersScript,
	})

	out, _, err := execute(t, "compile", "-C", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "(cached)")
	assert.FileExists(t, filepath.Join(dir, ".pansql", "cache.db"))

	out, _, err = execute(t, "compile", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(cached)")

	out, _, err = execute(t, "compile", "-C", dir, "--no-cache")
	require.NoError(t, err)
	assert.NotContains(t, out, "(cached)")
}

func TestCompile_Verbose(t *testing.T) {
	dir := newProject(t, map[string]string{"a.pansql": "select 1 as one"})

	out, errOut, err := execute(t, "compile", "-C", dir, "-v", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "step codegen")
	assert.Contains(t, errOut, "Wrote ")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "verbose output must not reach stdout")
	assert.Equal(t, "ok", resp.Status)
}

func TestCheck(t *testing.T) {
	dir := newProject(t, map[string]string{
		"a.pansql": "select 1 as one",
		"b.pansql": "select 2 as two",
	})

	out, _, err := execute(t, "check", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ 2 script(s) OK\n", out)
	assert.NoDirExists(t, filepath.Join(dir, "out"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pansql"), []byte("select y as z"), 0o644))
	_, _, err = execute(t, "check", "-C", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFunctions(t *testing.T) {
	out, _, err := execute(t, "functions", "--kind", "function")
	require.NoError(t, err)
	assert.Contains(t, out, "UPPER(")
	assert.NotContains(t, out, "property")

	out, _, err = execute(t, "functions", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Data)
}

func TestDiagnose(t *testing.T) {
	d := diagnose(assert.AnError)
	assert.Equal(t, ErrCodeGeneric, d.Code)
	assert.Equal(t, assert.AnError.Error(), d.Message)
	assert.False(t, d.Internal)

	d = diagnose(fmt.Errorf("orders.pansql: %w", &diag.SyntaxError{Line: 2, Col: 5, Detail: "expected expression"}))
	assert.Equal(t, &Diagnostic{Code: "E001", Message: "expected expression", Line: 2, Col: 5}, d)

	d = diagnose(&diag.BuildError{Code: diag.ErrQueryRender, Message: "no dialect"})
	assert.Equal(t, &Diagnostic{Code: "F006", Message: "no dialect", Internal: true}, d)
}

func TestFailures_ExitCode(t *testing.T) {
	p := &project{cfg: &config.Config{Dir: "/work"}}
	user := compiler.FileResult{Filename: "/work/a.pansql", Err: &diag.SyntaxError{Detail: "x"}}
	fault := compiler.FileResult{Filename: "/work/b.pansql", Err: &diag.BuildError{Code: diag.ErrStepCycle, Message: "cycle"}}

	reports, failed := p.report([]compiler.FileResult{user})
	assert.Equal(t, 1, failed.count)
	assert.Equal(t, ExitCommandError, failed.exitCode())
	assert.Equal(t, "a.pansql", reports[0].File)

	_, failed = p.report([]compiler.FileResult{user, fault})
	assert.Equal(t, 2, failed.count)
	assert.Equal(t, ExitFailure, failed.exitCode())

	out := &bytes.Buffer{}
	reports, failed = p.report([]compiler.FileResult{fault})
	err := outputFailures(&OutputFormatter{Format: "text", Writer: out}, reports, failed)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "internal compiler error F001: cycle")
}
