package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batch = "Company or Name,Address 1,City,State,Zip,Country,Phone,Weight,Weight Unit,Length,Width,Height,Contents\n" +
	"Acme Corp,1 Main St,Springfield,Illinois,62701,United States,(217) 555-0100,12,lbs,10,8,6,\n" +
	"Müller GmbH,Hauptstr. 5,Berlin,,10115,DE,,2,kg,30,20,10,\n"

func writeBatch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(batch), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--home-country", "US", "--profiles", ""}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"validate", "convert", "fields", "countries"} {
		_, _, err := root.Find([]string{name})
		assert.NoError(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	path := writeBatch(t)

	out, _, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 total, 1 valid, 1 invalid")
	assert.Contains(t, out, "line 3:")

	_, _, err = run(t, "validate", "--strict", path)
	assert.True(t, errors.Is(err, errInvalidRows))

	out, _, err = run(t, "validate", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"validRows": 1`)
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := run(t, "validate", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestValidate_RowsListsEveryInvalidRow(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.SplitAfter(batch, "\n")[0])
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Acme %d,%d Main St,Springfield,Illinois,62701,United States,(217) 555-0100,,lbs,10,8,6,\n", i, i+1)
	}
	path := filepath.Join(t.TempDir(), "missing-weight.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	out, _, err := run(t, "validate", "--rows", path)
	require.NoError(t, err)
	assert.Contains(t, out, "60 total, 0 valid, 60 invalid")
	assert.Equal(t, 60, strings.Count(out, "\nline "))
	assert.Contains(t, out, "line 61:")
}

func TestValidate_EmptyFileKeepsErrorChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, _, err := run(t, "validate", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyInput))
	assert.Contains(t, describe(err), "Code: FILE002")
	assert.True(t, strings.HasPrefix(err.Error(), path+": "))
}

func TestDescribe_PlainError(t *testing.T) {
	assert.Equal(t, "boom", describe(errors.New("boom")))
}

func TestConvert(t *testing.T) {
	path := writeBatch(t)

	out, stderr, err := run(t, "convert", "-f", "csv", "-o", "-", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	assert.Len(t, lines, 2, "header plus the valid row")
	assert.True(t, strings.HasPrefix(lines[1], "Acme Corp,"))
	assert.Contains(t, stderr, "1 records written")

	out, _, err = run(t, "convert", "--format", "xml", "--all", "-o", "-", path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "</shipment>"))

	_, _, err = run(t, "convert", "-f", "ssv", path)
	require.NoError(t, err)
	data, err := os.ReadFile(strings.TrimSuffix(path, ".csv") + ".ssv")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\ufeff")))
}

func TestConvert_DefaultOutputDoesNotOverwriteInput(t *testing.T) {
	path := writeBatch(t)

	_, _, err := run(t, "convert", path)
	require.NoError(t, err)

	input, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, batch, string(input))
	_, err = os.Stat(strings.TrimSuffix(path, ".csv") + ".out.csv")
	assert.NoError(t, err)
}

func TestConvert_UnknownFormat(t *testing.T) {
	_, _, err := run(t, "convert", "-f", "pdf", writeBatch(t))
	assert.ErrorContains(t, err, "unknown export format")
}

func TestParseMapFlags(t *testing.T) {
	got, err := parseMapFlags([]string{"6=", " 2 = city"})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{6: "", 2: "city"}, got)

	_, err = parseMapFlags([]string{"city"})
	assert.Error(t, err)
	_, err = parseMapFlags([]string{"x=city"})
	assert.Error(t, err)
}

func TestFieldsAndCountries(t *testing.T) {
	out, _, err := run(t, "fields", "--keys")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "name\n"))

	out, _, err = run(t, "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "Company or Name")

	out, _, err = run(t, "countries")
	require.NoError(t, err)
	assert.Contains(t, out, "US (home)")
}
