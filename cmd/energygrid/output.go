package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// outputStyles builds the style set used for plain (non-TUI) rendering.
// Color stripping for pipes and NO_COLOR is handled by lipgloss itself.
func outputStyles() ui.Styles {
	return ui.NewStyles(ui.ThemeFromName(cliApp.cfg.UI.Theme))
}

// printJSON writes indented JSON to stdout. Used by every command under
// --json so output stays scriptable.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func printTable(t *ui.SimpleTable) {
	fmt.Println(t.View(outputStyles()))
}

// printMeta prints the pagination footer for list output.
func printMeta(meta types.ListMeta) {
	if meta.TotalPages > 1 {
		fmt.Printf("Page %d of %d (%d items total)\n", meta.Page, meta.TotalPages, meta.TotalItems)
		if meta.HasNext() {
			fmt.Printf("Next page: --page %d\n", meta.Page+1)
		}
	}
}

// printCacheNote labels responses that did not come fresh off the API.
// Goes to stderr so --json output stays clean.
func printCacheNote(info *cacheInfo) {
	if info == nil {
		return
	}
	label := fmt.Sprintf("cached %s ago", humanAge(info.Age))
	if info.Stale {
		label += ", stale"
	}
	if info.Offline {
		label = "server unreachable, " + label
	}
	fmt.Fprintf(os.Stderr, "(%s)\n", label)
}

// renderMarkdown renders report summaries and similar rich text for the
// terminal.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// fmtTime renders an optional timestamp in local time, "-" when unset.
func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtTimeVal(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtAgo(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanAge(time.Since(*t)) + " ago"
}

func fmtBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// readJSONFile decodes a request document from a file, or stdin when the
// path is "-". Unknown fields are rejected so typos in hand-written
// payloads fail here instead of silently dropping data.
func readJSONFile[T any](path string) (*T, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &v, nil
}
