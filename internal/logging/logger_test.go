package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Tests share the package globals, so each one re-runs Initialize against
// its own temp directory and closes files on cleanup.

func initAt(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(CloseAll)
	return dir
}

func readCategoryLog(t *testing.T, dir string, category Category) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "logs", "*_"+string(category)+".log"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no log file for %s (err=%v)", category, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestNoConfigIsSilent(t *testing.T) {
	dir := initAt(t, "")
	if IsDebugMode() {
		t.Error("debug mode on without config")
	}
	API("this must go nowhere")
	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory created in production mode")
	}
}

func TestDebugModeWritesCategoryFile(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  level: debug\n")
	API("fetching %s", "/api/v2/buildings")
	APIDebug("retry %d", 2)
	CloseAll()

	content := readCategoryLog(t, dir, CategoryAPI)
	if !strings.Contains(content, "[INFO] fetching /api/v2/buildings") {
		t.Errorf("missing info line:\n%s", content)
	}
	if !strings.Contains(content, "[DEBUG] retry 2") {
		t.Errorf("missing debug line:\n%s", content)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  level: info\n")
	Auth("session loaded")
	AuthDebug("claims: sub=u-1")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryAuth)
	if !strings.Contains(content, "session loaded") {
		t.Errorf("info line missing:\n%s", content)
	}
	if strings.Contains(content, "claims") {
		t.Errorf("debug line written at info level:\n%s", content)
	}
}

func TestCategoryOptOut(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  categories:\n    api: false\n")
	API("suppressed")
	Cache("written")
	CloseAll()

	if matches, _ := filepath.Glob(filepath.Join(dir, "logs", "*_api.log")); len(matches) != 0 {
		t.Error("disabled category still wrote a file")
	}
	content := readCategoryLog(t, dir, CategoryCache)
	if !strings.Contains(content, "written") {
		t.Errorf("enabled category missing line:\n%s", content)
	}
}

func TestJSONFormatLines(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  level: debug\n  json_format: true\n")
	if !IsJSONFormat() {
		t.Fatal("json_format not picked up from config")
	}
	API("fetching %s", "/api/v2/buildings")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryAPI)
	for _, want := range []string{`"cat":"api"`, `"lvl":"info"`, `"msg":"fetching /api/v2/buildings"`, `"ts":`} {
		if !strings.Contains(content, want) {
			t.Errorf("json line missing %s:\n%s", want, content)
		}
	}
	if strings.Contains(content, "[INFO]") {
		t.Errorf("text format written in json mode:\n%s", content)
	}
}

func TestEnableDebugOverridesConfig(t *testing.T) {
	dir := initAt(t, "")
	EnableDebug()
	Jobs("poll started")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryJobs)
	if !strings.Contains(content, "poll started") {
		t.Errorf("forced debug produced nothing:\n%s", content)
	}
}

func TestRequestLoggerPrefix(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  level: debug\n")
	rl := WithRequestID(CategoryAPI, "req-9")
	rl.Info("GET /api/v2/alerts")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryAPI)
	if !strings.Contains(content, "[req:req-9] GET /api/v2/alerts") {
		t.Errorf("request id prefix missing:\n%s", content)
	}
}

func TestTimerThreshold(t *testing.T) {
	dir := initAt(t, "logging:\n  debug: true\n  level: debug\n")
	tm := StartTimer(CategoryCache, "schema migration")
	time.Sleep(2 * time.Millisecond)
	if d := tm.StopWithThreshold(time.Nanosecond); d <= 0 {
		t.Errorf("elapsed = %v", d)
	}
	CloseAll()

	content := readCategoryLog(t, dir, CategoryCache)
	if !strings.Contains(content, "[WARN] schema migration took") {
		t.Errorf("threshold warning missing:\n%s", content)
	}
}
