package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDetectCommand(t *testing.T) {
	out, err := run(t, "detect", "Can we book a demo next week?")
	require.NoError(t, err)

	var res struct {
		Type  string            `json:"type"`
		Slots map[string]string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "demo_request", res.Type)
	assert.Equal(t, "next week", res.Slots["timeline"])
}

func TestSuggestCommandSkipsShown(t *testing.T) {
	out, err := run(t, "suggest", "how much does pricing look like?", "--role", "CEO", "--shown", "roi_calculator")
	require.NoError(t, err)
	assert.NotContains(t, out, `"roi_calculator"`)
}

func TestStageCommand(t *testing.T) {
	out, err := run(t, "stage", "greeting", "--intent", "--context")
	require.NoError(t, err)
	assert.Equal(t, "INTENT", strings.TrimSpace(out))

	out, err = run(t, "stage", "ACTION")
	require.NoError(t, err)
	assert.Equal(t, "GREETING", strings.TrimSpace(out))

	_, err = run(t, "stage", "LIMBO")
	assert.Error(t, err)
}
