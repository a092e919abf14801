package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
user:
  name: ann
  _token: abc
  profile:
    email: ann@example.com
meta:
  id: 7
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) ([]map[string]any, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()

	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines, stderr.String(), err
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "shadowcopy version dev\n", out.String())
}

func TestTrace_ReadsAndWrites(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)

	lines, _, err := execute(t, "trace", "-f", doc, "--name", "people",
		"get:user.name",
		"set:user.name=bob",
		"get:user.name",
		"has:user.nickname",
		"keys:user",
		"get:user.profile",
	)
	require.NoError(t, err)
	require.Len(t, lines, 7)

	assert.Equal(t, map[string]any{"event": "result", "op": "get", "path": "user.name", "value": "ann"}, lines[0])

	change := lines[1]["change"].(map[string]any)
	assert.Equal(t, "change", lines[1]["event"])
	assert.Equal(t, "people", change["name"])
	assert.Equal(t, "set", change["op"])
	assert.Equal(t, []any{"user", "name"}, change["path"])
	assert.Equal(t, "ann", change["old"])
	assert.Equal(t, "bob", change["new"])
	assert.NotEmpty(t, change["id"])

	assert.Equal(t, map[string]any{"event": "result", "op": "set", "path": "user.name", "ok": true}, lines[2])
	assert.Equal(t, "bob", lines[3]["value"])
	assert.Equal(t, false, lines[4]["value"])
	assert.Equal(t, []any{"name", "_token", "profile"}, lines[5]["value"])
	assert.Equal(t, map[string]any{"email": "ann@example.com"}, lines[6]["value"])
}

func TestTrace_SetParsesYAMLValues(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)

	lines, _, err := execute(t, "trace", "-f", doc, "--dump",
		"set:meta.id=8",
		"set:meta.tags=[a, b]",
		"set:user.profile={email: bob@example.com}",
		"delete:user._token",
	)
	require.NoError(t, err)

	last := lines[len(lines)-1]
	require.Equal(t, "document", last["event"])
	assert.Equal(t, map[string]any{
		"user": map[string]any{
			"name":    "ann",
			"profile": map[string]any{"email": "bob@example.com"},
		},
		"meta": map[string]any{
			"id":   float64(8),
			"tags": []any{"a", "b"},
		},
	}, last["value"])

	var changes int
	for _, l := range lines {
		if l["event"] == "change" {
			changes++
		}
	}
	assert.Equal(t, 4, changes)
}

func TestTrace_GuardRules(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)
	policy := writeFile(t, "policy.yaml", "deny_ops: [deleteProperty]\n")

	lines, _, err := execute(t, "trace", "-f", doc,
		"--protect", "_",
		"--read-only", "meta",
		"--policy", policy,
		"set:user._token=xyz",
		"set:meta.id=9",
		"delete:user.name",
		"set:user.name=eve",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 4 operations failed")

	require.Len(t, lines, 5)
	for _, l := range lines[:3] {
		assert.Equal(t, "error", l["event"])
		assert.Contains(t, l["error"], "guard:")
	}
	assert.Contains(t, lines[0]["error"], "private property")
	assert.Contains(t, lines[1]["error"], "read-only path meta")
	assert.Contains(t, lines[2]["error"], "operation not allowed")
	assert.Equal(t, "change", lines[3]["event"])
	assert.Equal(t, "result", lines[4]["event"])
}

func TestTrace_ErrorsAreReported(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)

	lines, _, err := execute(t, "trace", "-f", doc, "get:user.name.first", "keys:nope")
	require.Error(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "user.name is not an object", lines[0]["error"])
	assert.Equal(t, "nope is not an object", lines[1]["error"])
}

func TestTrace_LogsToStderr(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)
	cfg := writeFile(t, "observe.yaml", "logging:\n  level: debug\n")

	_, stderr, err := execute(t, "trace", "-f", doc, "--config", cfg, "get:user._token")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"dispatch completed"`)
	assert.Contains(t, stderr, `"shadow.path":"user._token"`)
}

func TestTrace_InvalidInvocations(t *testing.T) {
	doc := writeFile(t, "doc.yaml", sampleDoc)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file flag", []string{"trace", "get:a"}, `required flag(s) "file" not set`},
		{"no operations", []string{"trace", "-f", doc}, "requires at least 1 arg"},
		{"bad operation", []string{"trace", "-f", doc, "fetch:a"}, "unknown kind"},
		{"missing document", []string{"trace", "-f", filepath.Join(t.TempDir(), "x.yaml"), "get:a"}, "load document"},
		{"cyclic document", []string{"trace", "-f", writeFile(t, "cyclic.yaml", "a: &x\n  b: *x\n"), "get:a"}, "anchor contains itself"},
		{"bad config", []string{"trace", "-f", doc, "--config", writeFile(t, "bad.yaml", "logging:\n  level: loud\n"), "get:a"}, "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTrace_ExpandEnv(t *testing.T) {
	t.Setenv("SHADOWCOPY_TEST_OWNER", "ops")
	doc := writeFile(t, "doc.yaml", "owner: ${SHADOWCOPY_TEST_OWNER}\n")

	lines, _, err := execute(t, "trace", "-f", doc, "--expand-env", "get:owner", "set:team=$SHADOWCOPY_TEST_OWNER-team", "get:team")
	require.NoError(t, err)
	assert.Equal(t, "ops", lines[0]["value"])
	assert.Equal(t, "ops-team", lines[len(lines)-1]["value"])

	lines, _, err = execute(t, "trace", "-f", doc, "get:owner")
	require.NoError(t, err)
	assert.Equal(t, "${SHADOWCOPY_TEST_OWNER}", lines[0]["value"])
}
