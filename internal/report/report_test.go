package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		s    Severity
		want string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	host := HostContext{RunID: "run-1"}

	require.NoError(t, r.Show("Loading errors", "a\nb", SeverityError, host))
	require.NoError(t, r.Show("demo", "trace", SeverityError, host))

	reports := r.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, Report{Title: "Loading errors", Body: "a\nb", Severity: SeverityError, Host: host}, reports[0])
	assert.Equal(t, "demo", reports[1].Title)

	r.Reset()
	assert.Empty(t, r.Reports())
}

func TestMultiCallsEveryReporter(t *testing.T) {
	var first, second Recorder
	boom := errors.New("boom")
	failing := Func(func(string, string, Severity, HostContext) error { return boom })

	err := Multi{&first, failing, &second}.Show("t", "b", SeverityError, HostContext{})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Reports(), 1)
	assert.Len(t, second.Reports(), 1)
}

func TestConsolePlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	require.NoError(t, c.Show("Loading errors", "Plugin: a. Couldn't find main script\n", SeverityError, HostContext{}))

	want := "[ERROR] Loading errors\nPlugin: a. Couldn't find main script\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleFramed(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, WithFrame(true))

	require.NoError(t, c.Show("demo", "line one\nline two", SeverityError, HostContext{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[ERROR] demo\n"), out)
	assert.Contains(t, out, "line one")
	assert.Contains(t, out, "line two")
	assert.Contains(t, out, "╭")
}

func TestConsoleColor(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, WithColor(true))

	require.NoError(t, c.Show("demo", "body", SeverityError, HostContext{}))
	assert.Contains(t, buf.String(), "\x1b[", "expected ANSI escape in coloured output")
}

func TestJSONDocument(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf, true)
	host := HostContext{RunID: "run-7", Trigger: "cli"}

	require.NoError(t, j.Show("Loading errors", "Plugin: a. x", SeverityError, host))
	require.NoError(t, j.Show("b", "stack\n  at x", SeverityError, host))
	require.NoError(t, j.Flush())

	doc := buf.String()
	require.True(t, gjson.Valid(doc), doc)
	assert.Equal(t, "run-7", gjson.Get(doc, "run_id").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "count").Int())
	assert.Equal(t, "Loading errors", gjson.Get(doc, "reports.0.title").String())
	assert.Equal(t, "stack\n  at x", gjson.Get(doc, "reports.1.body").String())
	assert.Equal(t, "error", gjson.Get(doc, "reports.1.severity").String())
	assert.Equal(t, "cli", gjson.Get(doc, "reports.0.trigger").String())
}

func TestJSONFlushResets(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf, false)

	require.NoError(t, j.Show("t", "b", SeverityError, HostContext{}))
	require.NoError(t, j.Flush())
	buf.Reset()

	require.NoError(t, j.Flush())
	doc := buf.String()
	assert.Equal(t, int64(0), gjson.Get(doc, "count").Int())
	assert.Equal(t, 0, len(gjson.Get(doc, "reports").Array()))
	assert.True(t, strings.HasSuffix(doc, "\n"))
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	require.NoError(t, sim.Init())
	t.Cleanup(sim.Fini)
	sim.SetSize(60, 8)
	return sim
}

func rowText(sim tcell.SimulationScreen, y int) string {
	cells, width, _ := sim.GetContents()
	var b strings.Builder
	for x := 0; x < width; x++ {
		runes := cells[y*width+x].Runes
		if len(runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func TestScreenShowsReportUntilDismissed(t *testing.T) {
	sim := newSimScreen(t)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	s := NewScreen(sim)
	require.NoError(t, s.Show("demo", "first line\nsecond line", SeverityError, HostContext{}))

	assert.Contains(t, rowText(sim, 0), "ERROR: demo")
	assert.Equal(t, "first line", rowText(sim, 1))
	assert.Equal(t, "second line", rowText(sim, 2))
}

func TestScreenScrolls(t *testing.T) {
	sim := newSimScreen(t)
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = strings.Repeat("x", i+1)
	}
	sim.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	s := NewScreen(sim)
	require.NoError(t, s.Show("long", strings.Join(lines, "\n"), SeverityError, HostContext{}))

	assert.Equal(t, "xxx", rowText(sim, 1), "body should be scrolled by two lines")
}

func TestScreenClosedOwnedOnly(t *testing.T) {
	sim := newSimScreen(t)
	s := NewScreen(sim)
	require.NoError(t, s.Close())

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	assert.NoError(t, s.Show("still usable", "", SeverityInfo, HostContext{}))
}
