package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterJSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	l := SetupWriter(&buf)
	l.Info("hidden")
	l.Warn("visible", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "visible", ev["msg"])
	assert.Equal(t, "geonames-import", ev["component"])
	assert.Same(t, l, L())
}

func TestProgressEvents(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	p := NewProgress(SetupWriter(&buf), 2)
	p.OnSourceBegin("cities500.txt")
	for i := 1; i <= 5; i++ {
		p.OnProgress(i, 5)
	}
	p.OnSourceDone()

	var msgs []string
	var last map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		msgs = append(msgs, ev["msg"].(string))
		last = ev
	}
	assert.Equal(t, []string{"import_progress", "import_progress", "import_progress_done"}, msgs)
	assert.Equal(t, "cities500.txt", last["source"])
	assert.EqualValues(t, 5, last["rows"])
}
