package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_NoColor(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, false)

	p.Success("done in %ds", 3)
	p.Info("searching")
	p.Step("polling")
	p.Detail("thread %s", "t1")
	p.Error("failed: %s", "boom")
	p.Warning("slow")

	assert.Equal(t, "✓ done in 3s\n→ searching\n▶ polling\n  thread t1\n", out.String())
	assert.Equal(t, "✗ failed: boom\n⚠ slow\n", errOut.String())
}

func TestPrinter_Color(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, true)

	p.Success("ok")
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "✓ ok")
}

func TestPrinter_JSON(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, false)

	require.NoError(t, p.JSON(map[string]any{"success": true, "data": "<b>"}))
	assert.Equal(t, "{\n  \"data\": \"<b>\",\n  \"success\": true\n}\n", out.String())
}

func TestPrinter_KeyValue(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, false)

	p.KeyValue("API key", "****abcd")
	assert.Equal(t, "  API key:       ****abcd\n", out.String())
}

func TestProgress(t *testing.T) {
	var out syncBuffer
	p := NewPrinterWithWriters(&out, &out, false)

	progress := p.StartProgress("Searching")
	progress.UpdateMessage("Waiting for the assistant")
	time.Sleep(150 * time.Millisecond)
	progress.Stop()
	progress.Stop()

	s := out.String()
	assert.Contains(t, s, "Searching")
	assert.Contains(t, s, "Waiting for the assistant")
	assert.True(t, strings.HasSuffix(s, "\r\033[K"))
}

func TestProgressFirstFrameIsImmediate(t *testing.T) {
	var out syncBuffer
	p := NewPrinterWithWriters(&out, &out, false)

	progress := p.StartProgress("Searching")
	defer progress.Stop()

	assert.Contains(t, out.String(), "Searching", "first frame is written before StartProgress returns")
}

func TestProgressUpdateAfterStopIsSilent(t *testing.T) {
	var out syncBuffer
	p := NewPrinterWithWriters(&out, &out, false)

	progress := p.StartProgress("Searching")
	progress.Stop()
	stopped := out.String()

	progress.UpdateMessage("Waiting for the assistant")
	assert.Equal(t, stopped, out.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.5s", formatDuration(500*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
}
