package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/utils"
)

func executeCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseCmd_PrintsArraysFromStdin(t *testing.T) {
	out, err := executeCmd(t, "a,\"b,c\",d\nx,y,z\n", "parse")
	assert.NoError(t, err)
	assert.Equal(t, "[\"a\",\"b,c\",\"d\"]\n[\"x\",\"y\",\"z\"]\n", out)
}

func TestParseCmd_PrintsObjectsWithHeader(t *testing.T) {
	out, err := executeCmd(t, "name;age\nAlice;34\n", "parse", "--separator", ";", "--skip-first-row")
	assert.NoError(t, err)
	assert.Equal(t, "{\"age\":\"34\",\"name\":\"Alice\"}\n", out)
}

func TestParseCmd_ReadsFile(t *testing.T) {
	f := utils.CreateTestFile(t, "# skipped\nAlice,34\nBob,24\n")

	out, err := executeCmd(t, "", "parse", f.Name(), "--comment", "#", "--columns", "name,age", "--filter", ".name")
	assert.NoError(t, err)
	assert.Equal(t, "\"Alice\"\n\"Bob\"\n", out)
}

func TestParseCmd_CSVOutput(t *testing.T) {
	out, err := executeCmd(t, "a\tb c\n", "parse", "-s", `\t`, "-o", "csv", "--output-separator", ",")
	assert.NoError(t, err)
	assert.Equal(t, "a,b c\n", out)
}

func TestParseCmd_FailsOnParseError(t *testing.T) {
	out, err := executeCmd(t, "a,b\nc\n", "parse", "--fields-per-record", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, csv.ErrFieldCount)
	assert.Equal(t, "record on line 2: wrong number of fields: expected 2 but got 1", err.Error())
	assert.Equal(t, "[\"a\",\"b\"]\n", out)
}

func TestParseCmd_RejectsBadFlags(t *testing.T) {
	_, err := executeCmd(t, "a\n", "parse", "--separator", "ab")
	assert.Error(t, err)

	_, err = executeCmd(t, "a\n", "parse", "--separator", `"`)
	assert.ErrorIs(t, err, csv.ErrInvalidDelim)

	_, err = executeCmd(t, "a\n", "parse", "--output", "xml")
	assert.Error(t, err)

	_, err = executeCmd(t, "a\n", "parse", "--filter", ".[")
	assert.Error(t, err)
}

func TestParseCmd_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "", "parse", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseCmd_WritesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gocsv.log")

	_, err := executeCmd(t, "a\n", "parse", "--verbose", "--log-file", logFile)
	require.NoError(t, err)

	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "debug: parse: wrote 1 rows")
}

func defaultConfig(t *testing.T) *config {
	t.Helper()

	cfg := &config{}
	cfg.bindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError))
	return cfg
}

func TestRunParse_StopsOnIdleStdinWhenCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	result := make(chan error, 1)
	go func() {
		result <- runParse(ctx, defaultConfig(t), &parseConfig{Output: outputJSON}, "-", pr, &out)
	}()

	_, err := pw.Write([]byte("a,b\n"))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runParse kept waiting on stdin after cancel")
	}
}

func TestConfig_StreamOptions(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Separator = "tab"
	cfg.Comment = "#"
	cfg.SkipFirstRow = true

	opts, err := cfg.streamOptions()
	require.NoError(t, err)

	rows, err := csv.Parse(strings.NewReader("#c\nname\tage\nAlice\t34\n"), opts...)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"name": "Alice", "age": "34"}, rows[0].Object())
}

func TestParseRuneFlag(t *testing.T) {
	tests := map[string]rune{
		"":      0,
		",":     ',',
		`\t`:    '\t',
		"tab":   '\t',
		`\s`:    ' ',
		"→":     '→',
		"space": ' ',
	}
	for value, want := range tests {
		got, err := parseRuneFlag("separator", value)
		assert.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}

	_, err := parseRuneFlag("separator", ",,")
	assert.Error(t, err)
}
