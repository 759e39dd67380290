package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/squareup/blockexec/errors"
	"github.com/stretchr/testify/require"
)

var smallRun = []string{"--line-item-rows=200", "--block-size=16", "--warmup-iterations=0", "--measured-iterations=1"}

func TestRunSingleBenchmark(t *testing.T) {
	out := &bytes.Buffer{}
	args := append(append([]string{}, smallRun...), "--output=line", "hash_agg")
	require.NoError(t, run(args, out))
	require.Contains(t, out.String(), "hash_agg: iterations=1")
	require.NotContains(t, out.String(), "alignment")
}

func TestRunPrintsGroups(t *testing.T) {
	out := &bytes.Buffer{}
	args := append(append([]string{}, smallRun...), "--output=line", "--print", "pricing_summary")
	require.NoError(t, run(args, out))
	require.Contains(t, out.String(), "pricing_summary:\n")
	require.Contains(t, out.String(), "max_shipmode")
}

func TestRunAllBenchmarksFromBlockStore(t *testing.T) {
	out := &bytes.Buffer{}
	args := append(append([]string{}, smallRun...), "--data-dir="+t.TempDir(), "--encoding=RLE")
	require.NoError(t, run(args, out))
	for _, name := range []string{"alignment", "hash_agg", "pricing_summary"} {
		require.Contains(t, out.String(), name)
	}
}

func TestRunWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "aggbench.hcl")
	hcl := `
line-item-rows = 100
measured-iterations = 1
warmup-iterations = 0
output = "line"
`
	require.NoError(t, ioutil.WriteFile(cfgFile, []byte(hcl), 0600))
	out := &bytes.Buffer{}
	require.NoError(t, run([]string{"--config=" + cfgFile, "alignment"}, out))
	require.Contains(t, out.String(), "alignment: iterations=1 ")
	require.Contains(t, out.String(), "input_rows=100 ")
}

func TestRunUnknownBenchmark(t *testing.T) {
	err := run(append(append([]string{}, smallRun...), "nope"), &bytes.Buffer{})
	require.True(t, errors.HasCode(err, errors.UnknownBenchmark))
}

func TestRunInvalidConfig(t *testing.T) {
	err := run([]string{"--page-size=0"}, &bytes.Buffer{})
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
}
