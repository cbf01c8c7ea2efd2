package gridapi

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		wire string
		want string
	}{
		{"building_id", "buildingID"},
		{"site_eui", "siteEUI"},
		{"evidence_url", "evidenceURL"},
		{"co2_emissions_kg", "co2EmissionsKg"},
		{"num_hvac_units", "numHVACUnits"},
		{"response_sla_minutes", "responseSLAMinutes"},
		{"api_key", "apiKey"},
		{"peak_demand_kw", "peakDemandKw"},
		{"floor_area_m2", "floorAreaM2"},
		// Rename table, not the algorithm.
		{"kwh_consumed", "kWhConsumed"},
		{"kwh_generated", "kWhGenerated"},
		{"2fa_enabled", "twoFactorEnabled"},
		{"scada_url", "scadaUrl"},
		{"bldg_code", "buildingCode"},
		{"created_ts", "createdAt"},
		{"audit_typ", "auditType"},
		// Left alone: single-segment, already canonical, malformed.
		{"id", "id"},
		{"status", "status"},
		{"buildingID", "buildingID"},
		{"_private", "_private"},
		{"double__under", "double__under"},
		{"$where", "$where"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			if got := NormalizeKey(tt.wire); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.wire, got, tt.want)
			}
		})
	}
}

func TestDenormalizeKey(t *testing.T) {
	tests := []struct {
		canonical string
		want      string
	}{
		{"buildingID", "building_id"},
		{"siteEUI", "site_eui"},
		{"evidenceURL", "evidence_url"},
		{"co2EmissionsKg", "co2_emissions_kg"},
		{"numHVACUnits", "num_hvac_units"},
		{"responseSLAMinutes", "response_sla_minutes"},
		{"kWhConsumed", "kwh_consumed"},
		{"kWhGenerated", "kwh_generated"},
		{"scadaUrl", "scada_url"},
		{"createdAt", "created_at"},
		{"floorAreaM2", "floor_area_m2"},
		{"peakDemandKw", "peak_demand_kw"},
		// Rename table.
		{"twoFactorEnabled", "2fa_enabled"},
		{"buildingCode", "bldg_code"},
		// Left alone: already wire-shaped or malformed.
		{"already_snake", "already_snake"},
		{"id", "id"},
		{"$where", "$where"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.canonical, func(t *testing.T) {
			if got := DenormalizeKey(tt.canonical); got != tt.want {
				t.Errorf("DenormalizeKey(%q) = %q, want %q", tt.canonical, got, tt.want)
			}
		})
	}
}

// Every well-formed wire key must survive a full round trip. Legacy
// collapse mappings (created_ts and friends) are intentionally one-way and
// excluded.
func TestKeyRoundTrip(t *testing.T) {
	wireKeys := []string{
		"building_id", "site_eui", "evidence_url", "co2_emissions_kg",
		"num_hvac_units", "response_sla_minutes", "api_key",
		"peak_demand_kw", "floor_area_m2", "kwh_consumed",
		"2fa_enabled", "scada_url", "bldg_code", "serial_number",
		"maintenance_status", "finding_count",
	}
	for _, k := range wireKeys {
		if got := DenormalizeKey(NormalizeKey(k)); got != k {
			t.Errorf("round trip %q -> %q -> %q", k, NormalizeKey(k), got)
		}
	}
}

func TestNormalizeKeysTree(t *testing.T) {
	in := map[string]any{
		"building_id": "b-1",
		"site_eui":    92.4,
		"energy_series": []any{
			map[string]any{"kwh_consumed": 120.5, "co2_emissions_kg": 40.1},
		},
		"metadata": map[string]any{
			"rack_id":   "user chose this key",
			"nested_kv": map[string]any{"scada_url": "opaque too"},
		},
	}
	want := map[string]any{
		"buildingID": "b-1",
		"siteEUI":    92.4,
		"energySeries": []any{
			map[string]any{"kWhConsumed": 120.5, "co2EmissionsKg": 40.1},
		},
		"metadata": map[string]any{
			"rack_id":   "user chose this key",
			"nested_kv": map[string]any{"scada_url": "opaque too"},
		},
	}

	got := NormalizeKeys(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeKeys mismatch (-want +got):\n%s", diff)
	}

	// The inverse walk restores the wire tree exactly.
	back := DenormalizeKeys(got)
	if diff := cmp.Diff(in, back); diff != "" {
		t.Errorf("denormalize round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKeysCollisions(t *testing.T) {
	t.Run("canonical key wins", func(t *testing.T) {
		in := map[string]any{
			"building_id": "from wire",
			"buildingID":  "already canonical",
		}
		got := NormalizeKeys(in).(map[string]any)
		if got["buildingID"] != "already canonical" {
			t.Errorf("collision winner = %v, want the canonical key", got["buildingID"])
		}
		if len(got) != 1 {
			t.Errorf("colliding keys must merge, got %d keys", len(got))
		}
	})

	t.Run("legacy alias loses to modern field", func(t *testing.T) {
		in := map[string]any{
			"created_at": "2026-01-02T03:04:05Z",
			"created_ts": "1735787045",
		}
		got := NormalizeKeys(in).(map[string]any)
		if got["createdAt"] != "2026-01-02T03:04:05Z" {
			t.Errorf("createdAt = %v, want the created_at value", got["createdAt"])
		}
	})
}

func TestNormalizeJSONPreservesNumbers(t *testing.T) {
	in := []byte(`{"building_id":"b-1","size_bytes":9007199254740993,"site_eui":92.4000}`)
	out, err := NormalizeJSON(in)
	if err != nil {
		t.Fatalf("NormalizeJSON: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"buildingID":"b-1"`) {
		t.Errorf("missing normalized key in %s", s)
	}
	if !strings.Contains(s, "9007199254740993") {
		t.Errorf("int64 value was mangled: %s", s)
	}
	if !strings.Contains(s, "92.4000") {
		t.Errorf("decimal literal was rewritten: %s", s)
	}
}

func TestDenormalizeJSON(t *testing.T) {
	in := []byte(`{"buildingCode":"HQ-01","twoFactorEnabled":true,"metadata":{"customKey":1}}`)
	out, err := DenormalizeJSON(in)
	if err != nil {
		t.Fatalf("DenormalizeJSON: %v", err)
	}
	s := string(out)
	for _, want := range []string{`"bldg_code":"HQ-01"`, `"2fa_enabled":true`, `"customKey":1`} {
		if !strings.Contains(s, want) {
			t.Errorf("output %s missing %s", s, want)
		}
	}
}

func TestNormalizeJSONEmptyAndInvalid(t *testing.T) {
	if out, err := NormalizeJSON(nil); err != nil || len(out) != 0 {
		t.Errorf("empty body should pass through, got %q err %v", out, err)
	}
	if _, err := NormalizeJSON([]byte("{not json")); err == nil {
		t.Errorf("invalid body must error")
	}
	// A bare scalar is valid JSON with no keys to rewrite.
	out, err := NormalizeJSON([]byte(`"ok"`))
	if err != nil || string(out) != `"ok"` {
		t.Errorf("scalar body = %q err %v", out, err)
	}
}
