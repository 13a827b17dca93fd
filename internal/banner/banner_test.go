package banner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrint(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Print(&buf, "2025.10.1")

	out := buf.String()
	if !strings.Contains(out, "reference data 2025.10.1") {
		t.Errorf("banner lacks the version line:\n%s", out)
	}
	if strings.Count(out, rule) != 2 {
		t.Errorf("expected two rules:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes written with NoColor set")
	}
}
