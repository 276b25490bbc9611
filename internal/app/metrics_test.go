package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.SessionsCreated.Add(3)
	m.JoinsFull.Add(1)

	var buf bytes.Buffer
	m.WritePrometheus(&buf, 2)
	out := buf.String()

	for _, want := range []string{
		"# TYPE recruit_sessions_active gauge\nrecruit_sessions_active 2\n",
		"# TYPE recruit_sessions_created_total counter\nrecruit_sessions_created_total 3\n",
		"recruit_joins_full_total 1\n",
		"recruit_renders_stale_total 0\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}
