package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/npy"
	"github.com/hupe1980/vecproof/testutil"
)

// workspace isolates a test from the caller's config and environment and
// points the store and ledger into a temporary directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("VECPROOF_STORE_BACKEND", "local")
	t.Setenv("VECPROOF_STORE_ROOT", filepath.Join(dir, "store"))
	t.Setenv("VECPROOF_LEDGER", filepath.Join(dir, "ledger.db"))
	t.Setenv("VECPROOF_OUTPUT", "json")
	return dir
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	a := newApp()
	cmd := newRootCommand(a)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, a.teardown())
	return out.Bytes(), err
}

func runJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)

	var v T
	require.NoError(t, json.Unmarshal(out, &v), string(out))
	return v
}

func TestVersion(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "vecproof dev")
}

func TestGenerate_UnknownDataset(t *testing.T) {
	workspace(t)
	_, err := run(t, "generate", "mystery", "x.npy")
	require.ErrorContains(t, err, "unknown dataset")
}

func TestReduceUnique_ExpandVerify(t *testing.T) {
	dir := workspace(t)
	data := filepath.Join(dir, "trajectory.npy")

	gen := runJSON[map[string]any](t, "generate", "trajectory", data)
	assert.Equal(t, []any{60.0, 6.0}, gen["shape"])
	assert.Equal(t, "<i4", gen["dtype"])

	res := runJSON[map[string]any](t, "reduce", "unique", data, "--reduced-out", filepath.Join(dir, "reduced.npy"))
	assert.Equal(t, true, res["passed"])
	assert.Equal(t, "unique", res["mode"])
	assert.Equal(t, []any{40.0, 6.0}, res["reduced_shape"])
	runID, ok := res["run_id"].(string)
	require.True(t, ok)

	reduced, err := npy.ReadFile(filepath.Join(dir, "reduced.npy"))
	require.NoError(t, err)
	assert.Equal(t, 40, reduced.Len())

	back := filepath.Join(dir, "expanded.npy")
	runJSON[map[string]any](t, "expand", runID, "--out", back)

	original, err := npy.ReadFile(data)
	require.NoError(t, err)
	expanded, err := npy.ReadFile(back)
	require.NoError(t, err)
	assert.True(t, original.Equal(expanded))

	ver := runJSON[map[string]any](t, "verify", runID, data)
	assert.Equal(t, true, ver["passed"])

	entries := runJSON[[]map[string]any](t, "runs")
	require.Len(t, entries, 2)
	assert.Equal(t, runID, entries[0]["id"])

	byFP := runJSON[[]map[string]any](t, "runs", "--fingerprint", res["original_fingerprint"].(string))
	assert.Len(t, byFP, 2)

	got := runJSON[[]map[string]any](t, "runs", "get", runID)
	require.Len(t, got, 1)
	assert.Equal(t, "reduction", got[0]["kind"])

	info := runJSON[map[string]any](t, "inspect", runID)
	assert.Equal(t, true, info["passed"])
	arts, ok := info["artifacts"].([]any)
	require.True(t, ok)
	require.Len(t, arts, 1)
	art := arts[0].(map[string]any)
	assert.Equal(t, ReductionArtifact, art["name"])
	assert.Equal(t, "zstd", art["compression"])
	assert.InDelta(t, 40, art["rows"], 0)

	for _, f := range []string{"manifest.json", "verification_report.md", "dataset_fingerprint.txt", ReductionArtifact} {
		assert.FileExists(t, filepath.Join(dir, "store", "runs", runID, f))
	}
	assert.FileExists(t, filepath.Join(dir, "store", "CURRENT"))
}

func TestReduceConsecutive(t *testing.T) {
	dir := workspace(t)
	data := filepath.Join(dir, "telemetry.npy")
	runJSON[map[string]any](t, "generate", "telemetry", data)

	policy := filepath.Join(dir, "policy.bin")
	require.NoError(t, os.WriteFile(policy, []byte("weights"), 0o600))

	res := runJSON[map[string]any](t, "reduce", "consecutive", data, "--policy", policy)
	assert.Equal(t, true, res["passed"])
	assert.Equal(t, "consecutive", res["mode"])
	assert.Equal(t, []any{422.0, 10.0}, res["reduced_shape"])

	runID := res["run_id"].(string)
	assert.FileExists(t, filepath.Join(dir, "store", "runs", runID, "policy_fingerprint.txt"))
}

func TestVerify_Mismatch(t *testing.T) {
	dir := workspace(t)
	trajectory := filepath.Join(dir, "trajectory.npy")
	telemetry := filepath.Join(dir, "telemetry.npy")
	runJSON[map[string]any](t, "generate", "trajectory", trajectory)
	runJSON[map[string]any](t, "generate", "telemetry", telemetry)

	res := runJSON[map[string]any](t, "reduce", "unique", trajectory)
	runID := res["run_id"].(string)

	out, err := run(t, "verify", runID, telemetry)
	require.ErrorIs(t, err, vecproof.ErrVerificationFailed)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, false, rec["passed"])

	entries := runJSON[[]map[string]any](t, "runs")
	require.Len(t, entries, 2)
	assert.Equal(t, false, entries[1]["passed"])
}

func TestCluster(t *testing.T) {
	dir := workspace(t)
	data := filepath.Join(dir, "failures.npy")
	runJSON[map[string]any](t, "generate", "failures", data, "--seed", "11")

	modesOut := filepath.Join(dir, "modes.npy")
	res := runJSON[map[string]any](t, "cluster", data, "--threshold", "0.95", "--modes-out", modesOut)
	assert.InDelta(t, 110, res["total_failures"], 0)
	assert.InDelta(t, testutil.FailureModes, res["unique_modes"], 0)
	assert.Equal(t, "cosine", res["similarity"])
	assert.Equal(t, false, res["approximate"])

	modes, err := npy.ReadFile(modesOut)
	require.NoError(t, err)
	assert.Equal(t, testutil.FailureModes, modes.Len())

	info := runJSON[map[string]any](t, "inspect", res["run_id"].(string))
	arts := info["artifacts"].([]any)
	require.Len(t, arts, 1)
	assert.Equal(t, "4 modes over 110 rows", arts[0].(map[string]any)["detail"])

	entries := runJSON[[]map[string]any](t, "runs")
	require.Len(t, entries, 1)
	assert.Equal(t, "heuristic", entries[0]["kind"])
}

func TestCluster_Labels(t *testing.T) {
	dir := workspace(t)
	data := filepath.Join(dir, "failures.npy")
	runJSON[map[string]any](t, "generate", "failures", data, "--seed", "11")

	labels := make([][]int32, 110)
	for i := range labels {
		labels[i] = []int32{1}
		if i < 10 {
			labels[i][0] = 0
		}
	}
	lc, err := corpus.FromInt32(labels)
	require.NoError(t, err)
	labelsPath := filepath.Join(dir, "labels.npy")
	require.NoError(t, npy.WriteFile(labelsPath, lc))

	res := runJSON[map[string]any](t, "cluster", data, "--labels", labelsPath)
	assert.InDelta(t, 100, res["total_failures"], 0)
	assert.InDelta(t, testutil.FailureModes, res["unique_modes"], 0)
}

func TestCluster_LSHFromEnv(t *testing.T) {
	dir := workspace(t)
	t.Setenv("VECPROOF_CLUSTER_LSH_TABLES", "8")
	t.Setenv("VECPROOF_CLUSTER_LSH_BITS", "6")

	data := filepath.Join(dir, "failures.npy")
	runJSON[map[string]any](t, "generate", "failures", data, "--seed", "11")

	res := runJSON[map[string]any](t, "cluster", data)
	assert.Equal(t, true, res["approximate"])
	assert.InDelta(t, testutil.FailureModes, res["unique_modes"], 0)
}

func TestFingerprint(t *testing.T) {
	dir := workspace(t)
	data := filepath.Join(dir, "trajectory.npy")
	runJSON[map[string]any](t, "generate", "trajectory", data)

	policy := filepath.Join(dir, "policy.txt")
	require.NoError(t, os.WriteFile(policy, []byte("abc"), 0o600))

	out := runJSON[[]map[string]any](t, "fingerprint", policy)
	require.Len(t, out, 1)
	assert.Equal(t,
		"sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		out[0]["fingerprint"])

	rows := runJSON[[]map[string]any](t, "fingerprint", "--rows", data)
	c, err := npy.ReadFile(data)
	require.NoError(t, err)
	assert.Equal(t, vecproof.New().Fingerprint(c.Bytes()).String(), rows[0]["fingerprint"])
}

func TestRuns_WithoutLedger(t *testing.T) {
	dir := workspace(t)
	t.Setenv("VECPROOF_LEDGER", "")

	data := filepath.Join(dir, "trajectory.npy")
	runJSON[map[string]any](t, "generate", "trajectory", data)
	res := runJSON[map[string]any](t, "reduce", "unique", data)

	ids := runJSON[[]string](t, "runs")
	assert.Equal(t, []string{res["run_id"].(string)}, ids)

	_, err := run(t, "runs", "get", "x")
	require.ErrorIs(t, err, errNoLedger)
}

func TestMetricsFileAndConfig(t *testing.T) {
	dir := workspace(t)
	metrics := filepath.Join(dir, "vecproof.prom")

	data := filepath.Join(dir, "trajectory.npy")
	runJSON[map[string]any](t, "generate", "trajectory", data)
	runJSON[map[string]any](t, "reduce", "unique", data, "--metrics-file", metrics, "--algorithm", "blake3")

	text, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(text), `vecproof_reduce_total{mode="unique",status="ok"} 1`)
	assert.Contains(t, string(text), `vecproof_verify_total{result="passed"} 1`)

	out, err := run(t, "config", "--workers", "3")
	require.NoError(t, err)
	assert.Contains(t, string(out), "workers: 3")
	assert.Contains(t, string(out), "backend: local")
	assert.NotContains(t, string(out), "secret_key")
}

func TestInvalidConfig(t *testing.T) {
	workspace(t)
	_, err := run(t, "config", "--backend", "ftp")
	require.Error(t, err)
}
