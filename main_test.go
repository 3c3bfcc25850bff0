package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFormulaCommand(t *testing.T) {
	out, err := execute(t, "formula", "consumption * rate + 2", "--var", "consumption=10", "--var", "rate=0.5")
	require.NoError(t, err)
	assert.Equal(t, "7", strings.TrimSpace(out))
}

func TestFormulaCommandRejectsBadBinding(t *testing.T) {
	_, err := execute(t, "formula", "x", "--var", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name=value")
}

func TestTariffValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "flat.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"flat","rate":0.15}`), 0o600))

	out, err := execute(t, "tariff", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "flat configuration is valid")

	invalid := filepath.Join(dir, "tou.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"type":"time_of_use","zones":[]}`), 0o600))
	_, err = execute(t, "tariff", "validate", invalid)
	require.Error(t, err)
}

func TestParseDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("EET", 2*3600)
	d, err := parseDate("2024-03-01", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())

	_, err = parseDate("01/03/2024", loc)
	require.Error(t, err)

	m, err := parseMonth("2024-07", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.July, m.Month())
}
