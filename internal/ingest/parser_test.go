package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/eitanrom/plada-backend/internal/alias"
	"github.com/eitanrom/plada-backend/internal/domain/reports"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
	"github.com/eitanrom/plada-backend/internal/standards"
)

const testStandardsDoc = `
active_companies: [Kfir, Lahav]
critical_gap_penalty: 12
gap_tokens: ["חסר", "תקול"]
critical_items: ["מטף"]
sections:
  zivud: Logistics
  ammo: Armament
missing_value_policy:
  ammo: assume_standard
company_asset_items:
  - name: "מאג"
    section: Armament
    group: ammo
    standard_quantity: 3
`

func testParser(t *testing.T) *Parser {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	stds, err := standards.Parse([]byte(testStandardsDoc))
	if err != nil {
		t.Fatalf("standards: %v", err)
	}
	resolver, err := alias.NewResolver(alias.Config{
		Rules: []alias.RuleConfig{
			{Family: alias.FamilyTankID, Pattern: "מספר טנק", AllowTrailing: true},
			{Family: alias.FamilyTimestamp, Pattern: "חותמת זמן"},
			{Family: alias.FamilyCompany, Pattern: "פלוגה", AllowTrailing: true},
			{Family: "zivud", Pattern: "דוח זיווד [*]", AllowTrailing: true},
			{Family: "ammo", Pattern: "תחמושת [*]", AllowTrailing: true},
		},
		Companies: alias.CompanyConfig{
			SourceIDs: map[string]string{"form-kfir-2026": "Kfir"},
			Fragments: map[string][]string{
				"Kfir":   {"כפיר", "kfir"},
				"Palsar": {"פלסר", "palsar"},
			},
		},
	}, log)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return NewParser(resolver, stds, log)
}

func rawEvent(t *testing.T, sourceID string, receivedAt time.Time, payload map[string]interface{}) *reports.RawEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &reports.RawEvent{
		EventID:       "evt-test",
		SchemaVersion: "1",
		SourceID:      sourceID,
		ReceivedAt:    receivedAt,
		Payload:       datatypes.JSON(raw),
		Status:        reports.RawEventStatusIngested,
	}
}

func fieldsOf(t *testing.T, resp *reports.NormalizedResponse) map[string]string {
	t.Helper()
	var fields map[string]string
	if err := json.Unmarshal(resp.Fields, &fields); err != nil {
		t.Fatalf("unmarshal fields: %v", err)
	}
	return fields
}

func TestParseFullReport(t *testing.T) {
	p := testParser(t)
	received := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	event := rawEvent(t, "form-kfir-2026", received, map[string]interface{}{
		"מספר טנק":               "314",
		"חותמת זמן":              "2026-02-09T08:00:00+02:00",
		"פלוגה":                  "פלוגת כפיר",
		"דוח זיווד [חבל פריסה]":  "חסר",
		"תחמושת [מאג]":           float64(2),
		"שדה חופשי שאיננו ממופה": "הערות",
	})

	resp, err := p.Parse(event)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.TankID != "314" {
		t.Errorf("TankID = %q", resp.TankID)
	}
	if resp.WeekID != "2026-W07" {
		t.Errorf("WeekID = %q, want 2026-W07", resp.WeekID)
	}
	if resp.CompanyKey != "Kfir" {
		t.Errorf("CompanyKey = %q, want Kfir", resp.CompanyKey)
	}
	fields := fieldsOf(t, resp)
	if got := fields["zivud:חבל פריסה"]; got != "חסר" {
		t.Errorf("zivud field = %q", got)
	}
	if got := fields["ammo:מאג"]; got != "2" {
		t.Errorf("ammo field = %q", got)
	}
	var unmapped []string
	if err := json.Unmarshal(resp.UnmappedFields, &unmapped); err != nil {
		t.Fatalf("unmarshal unmapped: %v", err)
	}
	if len(unmapped) != 1 || unmapped[0] != "שדה חופשי שאיננו ממופה" {
		t.Errorf("UnmappedFields = %v", unmapped)
	}
}

func TestParseMissingRequired(t *testing.T) {
	p := testParser(t)
	received := time.Now().UTC()

	cases := []struct {
		name    string
		payload map[string]interface{}
		want    []string
	}{
		{
			"no tank id",
			map[string]interface{}{"חותמת זמן": "2026-02-09", "דוח זיווד [מטף]": "תקין"},
			[]string{alias.FamilyTankID},
		},
		{
			"no timestamp",
			map[string]interface{}{"מספר טנק": "314", "דוח זיווד [מטף]": "תקין"},
			[]string{alias.FamilyTimestamp},
		},
		{
			"tank id label present but empty value",
			map[string]interface{}{"מספר טנק": "  ", "חותמת זמן": "2026-02-09"},
			[]string{alias.FamilyTankID},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse(rawEvent(t, "", received, tc.payload))
			verr, ok := pkgerrors.AsValidation(err)
			if !ok {
				t.Fatalf("Parse error = %v, want ValidationError", err)
			}
			if len(verr.MissingRequired) != len(tc.want) || verr.MissingRequired[0] != tc.want[0] {
				t.Fatalf("MissingRequired = %v, want %v", verr.MissingRequired, tc.want)
			}
		})
	}
}

func TestParseEmptyPayload(t *testing.T) {
	p := testParser(t)
	event := &reports.RawEvent{EventID: "evt-empty", ReceivedAt: time.Now().UTC()}
	if _, err := p.Parse(event); err == nil {
		t.Fatal("expected validation error for empty payload")
	}
	event.Payload = datatypes.JSON([]byte(`{}`))
	if _, err := p.Parse(event); err == nil {
		t.Fatal("expected validation error for empty object payload")
	}
}

func TestParseCompanyFallbacks(t *testing.T) {
	p := testParser(t)
	received := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		sourceID string
		company  interface{}
		want     string
	}{
		{"payload value wins", "form-unknown", "פלוגת כפיר", "Kfir"},
		{"source id fallback", "form-kfir-2026", nil, "Kfir"},
		{"inactive company rejected", "form-unknown", "פלסר", reports.CompanyUnknown},
		{"nothing resolves", "form-unknown", nil, reports.CompanyUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := map[string]interface{}{
				"מספר טנק":  "314",
				"חותמת זמן": "2026-02-09T08:00:00+02:00",
			}
			if tc.company != nil {
				payload["פלוגה"] = tc.company
			}
			resp, err := p.Parse(rawEvent(t, tc.sourceID, received, payload))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if resp.CompanyKey != tc.want {
				t.Fatalf("CompanyKey = %q, want %q", resp.CompanyKey, tc.want)
			}
		})
	}
}

func TestResolveTimestamp(t *testing.T) {
	p := testParser(t)
	received := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		raw      string
		wantWeek string
	}{
		{"rfc3339", "2026-02-09T08:00:00+02:00", "2026-W07"},
		{"date only", "2026-02-09", "2026-W07"},
		{"slash date", "09/02/2026", "2026-W07"},
		{"spreadsheet serial", "46062", "2026-W07"},
		{"serial out of range falls back", "120", "2026-W09"},
		{"garbage falls back to received_at", "מחר", "2026-W09"},
		{"empty falls back to received_at", "", "2026-W09"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekID(p.resolveTimestamp(tc.raw, received), p.loc)
			if got != tc.wantWeek {
				t.Fatalf("week for %q = %q, want %q", tc.raw, got, tc.wantWeek)
			}
		})
	}
}

func TestWeekIDYearBoundary(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2025, time.December, 29, 10, 0, 0, 0, loc), "2026-W01"},
		{time.Date(2027, time.January, 1, 10, 0, 0, 0, loc), "2026-W53"},
		{time.Date(2026, time.February, 9, 10, 0, 0, 0, loc), "2026-W07"},
	}
	for _, tc := range cases {
		if got := WeekID(tc.t, loc); got != tc.want {
			t.Errorf("WeekID(%s) = %q, want %q", tc.t.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestScalarString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"חסר", "חסר"},
		{true, "true"},
		{float64(3), "3"},
		{float64(2.5), "2.5"},
		{json.Number("7"), "7"},
	}
	for _, tc := range cases {
		if got := scalarString(tc.in); got != tc.want {
			t.Errorf("scalarString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
