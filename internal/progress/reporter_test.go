package progress

import (
	"bytes"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}

	r.Start(2, "Copying assets")
	r.Update(1, "styles/main.css")
	r.Update(2, "scripts/main.js")
	r.Finish()

	want := "Copying assets: 2 files\n[1/2] styles/main.css\n[2/2] scripts/main.js\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}
