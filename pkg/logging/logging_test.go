package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSON(t *testing.T) {
	defer func() {
		require.NoError(t, Configure("info", "text", os.Stderr))
	}()

	var buf bytes.Buffer
	require.NoError(t, Configure("debug", "json", &buf))

	Named("field").Debug("hello")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "field", rec["component"])
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, logrus.DebugLevel, Root().GetLevel())
}

func TestConfigureRejectsUnknownValues(t *testing.T) {
	assert.Error(t, Configure("verbose", "text", nil))
	assert.Error(t, Configure("info", "yaml", nil))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNamedEntriesReachRootHooks(t *testing.T) {
	hook := test.NewLocal(Root())
	defer Root().ReplaceHooks(make(logrus.LevelHooks))

	Named("strut").Warn("no edges")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "strut", hook.LastEntry().Data["component"])
}
