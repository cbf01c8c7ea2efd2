package ui

import (
	"strings"
	"testing"
)

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Buildings", []string{"CODE", "NAME"})
	table.AddRow("HQ-01", "Headquarters")

	styles := DefaultStyles()
	view := table.View(styles)

	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Buildings") {
		t.Error("View missing title")
	}
	if !strings.Contains(view, "HQ-01") {
		t.Error("View missing cell content")
	}
}

func TestSimpleTableEmpty(t *testing.T) {
	table := NewSimpleTable("Empty", []string{"A"})
	if view := table.View(DefaultStyles()); view != "" {
		t.Errorf("expected empty view for table with no rows, got %q", view)
	}
}
