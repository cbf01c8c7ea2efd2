// Package gridapi is the typed client for the EnergyGrid REST API. It owns
// the wire dialect: every payload is normalized from the server's snake_case
// field names into the canonical camelCase dialect on the way in, and
// denormalized on the way out. The rest of the codebase only ever sees
// canonical names.
package gridapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

// acronyms maps lowercase wire segments to their canonical camel spelling.
// Without the table, naive conversion shreds domain initialisms: site_eui
// would become siteEui and kWhConsumed would round-trip to k_wh_consumed.
// The camel spelling is used for non-leading segments only; a leading
// segment stays lowercase (api_key -> apiKey).
var acronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"api":  "API",
	"co2":  "CO2",
	"kwh":  "KWh",
	"hvac": "HVAC",
	"eui":  "EUI",
	"iaq":  "IAQ",
	"sla":  "SLA",
	"kpi":  "KPI",
	"pdf":  "PDF",
	"csv":  "CSV",
}

// camelAcronyms is the reverse lookup, ordered longest-first so greedy
// matching prefers HVAC over an accidental shorter hit.
var camelAcronyms []struct{ camel, snake string }

// leadingAcronyms adds spellings that only occur at the start of a key,
// where camelCase forces the first letter down: kWhConsumed, not
// KWhConsumed.
var leadingAcronyms = map[string]string{
	"kWh": "kwh",
}

// normRenames maps irregular wire names straight to canonical ones. These
// are legacy server fields the algorithm cannot reach: names with leading
// digits, pre-initialism spellings, and renamed columns that still surface
// under their old names on v1 endpoints.
var normRenames = map[string]string{
	"2fa_enabled":   "twoFactorEnabled",
	"kwh_consumed":  "kWhConsumed",
	"kwh_generated": "kWhGenerated",
	"scada_url":     "scadaUrl",
	"bldg_code":     "buildingCode",
	"created_ts":    "createdAt",
	"updated_ts":    "updatedAt",
	"audit_typ":     "auditType",
	"last_login_ts": "lastLoginAt",
}

// denormRenames maps canonical names to the wire name the server expects on
// writes, for the fields whose algorithmic conversion would miss the legacy
// column. Only mappings the algorithm gets wrong belong here.
var denormRenames = map[string]string{
	"twoFactorEnabled": "2fa_enabled",
	"buildingCode":     "bldg_code",
}

// opaqueKeys marks fields whose values are user data: arbitrary keys chosen
// by operators, not API field names. Their subtrees pass through both
// directions untouched. The spellings are identical in both dialects.
var opaqueKeys = map[string]bool{
	"metadata":   true,
	"parameters": true,
	"properties": true,
}

func init() {
	for snake, camel := range acronyms {
		camelAcronyms = append(camelAcronyms, struct{ camel, snake string }{camel, snake})
	}
	for camel, snake := range leadingAcronyms {
		camelAcronyms = append(camelAcronyms, struct{ camel, snake string }{camel, snake})
	}
	sort.Slice(camelAcronyms, func(i, j int) bool {
		if len(camelAcronyms[i].camel) != len(camelAcronyms[j].camel) {
			return len(camelAcronyms[i].camel) > len(camelAcronyms[j].camel)
		}
		return camelAcronyms[i].camel < camelAcronyms[j].camel
	})

	// The tables must agree with each other and with the algorithm, in
	// both directions. A mapping that does not survive a round trip is a
	// programming error, so fail loudly at startup rather than corrupt
	// payloads quietly.
	for canonical, wire := range denormRenames {
		if got := NormalizeKey(wire); got != canonical {
			panic(fmt.Sprintf("gridapi: denorm rename %q -> %q does not normalize back (got %q)", canonical, wire, got))
		}
	}
	for wire, canonical := range normRenames {
		if got := NormalizeKey(DenormalizeKey(canonical)); got != canonical {
			panic(fmt.Sprintf("gridapi: norm rename %q -> %q is not round-trip stable (got %q)", wire, canonical, got))
		}
	}
}

// NormalizeKey converts one wire field name to its canonical camelCase
// form. Rename-table entries win over the algorithm; keys that do not look
// like well-formed wire names (leading digit, $, embedded uppercase) are
// returned unchanged.
func NormalizeKey(key string) string {
	if canonical, ok := normRenames[key]; ok {
		return canonical
	}
	if !isWireKey(key) {
		return key
	}
	if !strings.Contains(key, "_") {
		return key
	}

	parts := strings.Split(key, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if spelled, ok := acronyms[p]; ok {
			b.WriteString(spelled)
			continue
		}
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// DenormalizeKey converts one canonical camelCase field name to the wire
// snake_case form, greedily matching known initialism spellings so that
// kWhConsumed splits as kwh_consumed rather than k_wh_consumed.
func DenormalizeKey(key string) string {
	if wire, ok := denormRenames[key]; ok {
		return wire
	}
	if !isCanonicalKey(key) {
		return key
	}

	var words []string
	runes := []rune(key)
	i := 0
	for i < len(runes) {
		if snake, n := matchAcronymAt(runes, i); n > 0 {
			words = append(words, snake)
			i += n
			continue
		}
		start := i
		if unicode.IsUpper(runes[i]) {
			// A run of uppers is an unknown initialism: all but the
			// last letter form one word, the last starts the next.
			// A trailing run is a single word.
			j := i
			for j < len(runes) && unicode.IsUpper(runes[j]) {
				j++
			}
			if j-i > 1 {
				if j == len(runes) {
					words = append(words, strings.ToLower(string(runes[i:j])))
					i = j
					continue
				}
				words = append(words, strings.ToLower(string(runes[i:j-1])))
				i = j - 1
				continue
			}
			i++
		}
		for i < len(runes) && !unicode.IsUpper(runes[i]) {
			i++
		}
		words = append(words, strings.ToLower(string(runes[start:i])))
	}
	return strings.Join(words, "_")
}

// matchAcronymAt reports whether a known initialism spelling begins at
// position i and ends on a word boundary. Returns its snake form and the
// number of runes consumed, or ("", 0).
func matchAcronymAt(runes []rune, i int) (string, int) {
	rest := string(runes[i:])
	for _, a := range camelAcronyms {
		if !strings.HasPrefix(rest, a.camel) {
			continue
		}
		end := i + len([]rune(a.camel))
		// kWh may only match at a word start, otherwise "peakWh..."
		// style keys would split wrongly.
		if !unicode.IsUpper(runes[i]) && i != 0 {
			continue
		}
		if end == len(runes) || unicode.IsUpper(runes[end]) || unicode.IsDigit(runes[end]) {
			return a.snake, end - i
		}
	}
	return "", 0
}

// isWireKey reports whether key is a well-formed snake_case wire name the
// algorithm may convert: lowercase letter first, then lowercase letters,
// digits, and underscores. Everything else is table-only.
func isWireKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_' && i > 0 && i < len(key)-1:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return !strings.Contains(key, "__")
}

// isCanonicalKey reports whether key is a well-formed camelCase canonical
// name: lowercase letter first, then letters and digits only.
func isCanonicalKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case unicode.IsLetter(r):
			if i == 0 && unicode.IsUpper(r) {
				return false
			}
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// NormalizeKeys walks a decoded JSON tree and renames every object key from
// the wire dialect to the canonical one. Values are never altered; opaque
// subtrees (metadata, parameters) pass through untouched. When two source
// keys collide on the same canonical name, a key that is already canonical
// wins, then the lexicographically smallest source key.
func NormalizeKeys(v any) any {
	return walkKeys(v, NormalizeKey)
}

// DenormalizeKeys is the inverse walk: canonical keys become wire keys.
func DenormalizeKeys(v any) any {
	return walkKeys(v, DenormalizeKey)
}

func walkKeys(v any, rename func(string) string) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		// Keys already in target form are copied first so they win any
		// collision deterministically.
		for _, k := range keys {
			if rename(k) != k {
				continue
			}
			out[k] = walkValue(k, node[k], rename)
		}
		for _, k := range keys {
			nk := rename(k)
			if nk == k {
				continue
			}
			if _, taken := out[nk]; taken {
				logging.TransformWarn("dropping key %q: collides with %q", k, nk)
				continue
			}
			out[nk] = walkValue(k, node[k], rename)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = walkKeys(item, rename)
		}
		return out
	default:
		return v
	}
}

func walkValue(key string, v any, rename func(string) string) any {
	if opaqueKeys[key] {
		return v
	}
	return walkKeys(v, rename)
}

// NormalizeJSON decodes a wire payload, normalizes every key, and
// re-encodes it. Numbers pass through json.Number so their textual form is
// preserved exactly.
func NormalizeJSON(data []byte) ([]byte, error) {
	return rewriteJSON(data, NormalizeKey)
}

// DenormalizeJSON is the outgoing counterpart of NormalizeJSON.
func DenormalizeJSON(data []byte) ([]byte, error) {
	return rewriteJSON(data, DenormalizeKey)
}

func rewriteJSON(data []byte, rename func(string) string) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	out, err := json.Marshal(walkKeys(tree, rename))
	if err != nil {
		return nil, fmt.Errorf("re-encode payload: %w", err)
	}
	return out, nil
}
