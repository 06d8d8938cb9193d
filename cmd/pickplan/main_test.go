package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/pickplan/internal/pipeline"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func generate(t *testing.T, dir string) string {
	t.Helper()
	out := execute(t, "gen", "-o", dir, "--seed", "3", "--vehicles", "2", "--items", "4", "--width", "7", "--height", "6")
	assert.Contains(t, out, "Generated:")
	path := filepath.Join(dir, "pick_2_7x6_3.yaml")
	require.FileExists(t, path)
	return path
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	inst := generate(t, dir)
	outPath := filepath.Join(dir, "plan.json")

	execute(t, "plan", "-i", inst, "-o", outPath, "--algorithm", "ca", "--seed", "11")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var plan pipeline.PlanOutput
	require.NoError(t, json.Unmarshal(data, &plan))
	assert.Equal(t, "CA", plan.Planner)
	assert.Equal(t, "pick_2_7x6_3", plan.Instance)
	assert.Equal(t, int64(11), plan.Seed)
	assert.Len(t, plan.Vehicles, 2)

	items := 0
	for _, v := range plan.Vehicles {
		items += len(v.Job.Items)
	}
	assert.Equal(t, 4, items)
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	inst := generate(t, dir)

	out := execute(t, "preview", "-i", inst, "-o", "-")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "naive")
	assert.Contains(t, doc, "CA")
	assert.Contains(t, doc, "CBS")
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	generate(t, dir)
	csvPath := filepath.Join(dir, "out", "bench.csv")

	out := execute(t, "bench", "-d", dir, "--csv", csvPath, "--algorithms", "ca,cbs", "--timeout", "30s")
	assert.Contains(t, out, "BENCHMARK SUMMARY")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, benchHeader, rows[0])
	assert.Equal(t, "CA", rows[1][8])
	assert.Equal(t, "CBS", rows[2][8])
}

func TestBenchRejectsUnknownAlgorithm(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"bench", "-d", t.TempDir(), "--algorithms", "mcts"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mcts")
	benchFlags.algorithms = "ca,cbs"
}

func TestEncodeBenchCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeBenchCSV(&buf, []benchResult{{
		Instance: "i", Planner: "CA", RuntimeMs: 1.5, Success: true, Error: "a, b",
	}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,go_version"))
	assert.Contains(t, lines[1], `1.500,true`)
	assert.Contains(t, lines[1], `"a, b"`)
}
