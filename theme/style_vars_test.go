package theme

import (
	"strings"
	"testing"
)

func TestStyleVariablesOrderAndValues(t *testing.T) {
	t.Parallel()
	th := Theme{
		PrimaryColor:       "#0ea5e9",
		SecondaryColor:     "#10b981",
		BackgroundColor:    "#ffffff",
		SurfaceColor:       "#f7f7f7",
		ElevatedColor:      "#f2f2f2",
		TextColor:          "#1f2937",
		TextSecondaryColor: "#6b7280",
		BorderColor:        "#e5e7eb",
		FontFamily:         "Inter, sans-serif",
	}
	expected := `--portal-primary: #0ea5e9;
--portal-primary-hover: #008cd0;
--portal-secondary: #10b981;
--portal-background: #ffffff;
--portal-surface: #f7f7f7;
--portal-elevated: #f2f2f2;
--portal-text: #1f2937;
--portal-text-secondary: #6b7280;
--portal-border: #e5e7eb;
--portal-font-family: Inter, sans-serif;
`
	if got := th.StyleVariables(); got != expected {
		t.Fatalf("StyleVariables() = %q, expected %q", got, expected)
	}
}

func TestStyleVariablesHoverDirection(t *testing.T) {
	t.Parallel()
	dark := Theme{PrimaryColor: "#e91e63", IsDark: true}
	if got := dark.StyleVariables(); !strings.Contains(got, "--portal-primary-hover: #fd3277;") {
		t.Fatalf("dark hover output %q, expected lightened #fd3277", got)
	}
	light := Theme{PrimaryColor: "#e91e63"}
	if got := light.StyleVariables(); !strings.Contains(got, "--portal-primary-hover: #d0054a;") {
		t.Fatalf("light hover output %q, expected darkened #d0054a", got)
	}
}

func TestStyleVariablesAlwaysComplete(t *testing.T) {
	t.Parallel()
	out := Extract("", nil).StyleVariables()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("StyleVariables emitted %d lines, expected 10:\n%s", len(lines), out)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "--portal-") || !strings.HasSuffix(line, ";") {
			t.Fatalf("malformed variable line %q", line)
		}
		value := line[strings.Index(line, ": ")+2 : len(line)-1]
		if strings.TrimSpace(value) == "" {
			t.Fatalf("variable line %q has empty value", line)
		}
	}
}
