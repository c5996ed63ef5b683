package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/eitanrom/plada-backend/internal/alias"
	"github.com/eitanrom/plada-backend/internal/domain/reports"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
	"github.com/eitanrom/plada-backend/internal/standards"
)

// Spreadsheet serial dates count days since 1899-12-30. Values far outside the
// form era are not treated as serials.
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	serialMin = 20000 // ~1954
	serialMax = 80000 // ~2118
)

// Parser turns one RawEvent into exactly one NormalizedResponse or a typed
// ValidationError. Week ids are always derived from the resolved timestamp in
// the reporting timezone; week labels inside the payload are ignored.
type Parser struct {
	resolver *alias.Resolver
	stds     *standards.Standards
	loc      *time.Location
	log      *logger.Logger
}

func NewParser(resolver *alias.Resolver, stds *standards.Standards, baseLog *logger.Logger) *Parser {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		loc = time.FixedZone("IST", 2*60*60)
	}
	return &Parser{
		resolver: resolver,
		stds:     stds,
		loc:      loc,
		log:      baseLog.With("component", "EventParser"),
	}
}

func (p *Parser) Parse(event *reports.RawEvent) (*reports.NormalizedResponse, error) {
	payload, err := decodePayload(event.Payload)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := map[string]string{}
	var unmapped []string
	var tankID, timestampRaw, companyRaw string
	resolvedFamilies := map[string]bool{}

	for _, key := range keys {
		value := scalarString(payload[key])
		m := p.resolver.ResolveHeader(key)
		if m == nil {
			unmapped = append(unmapped, key)
			continue
		}
		resolvedFamilies[m.Family] = true
		switch m.Family {
		case alias.FamilyTankID:
			if tankID == "" {
				tankID = strings.TrimSpace(value)
			}
		case alias.FamilyTimestamp:
			if timestampRaw == "" {
				timestampRaw = strings.TrimSpace(value)
			}
		case alias.FamilyCompany:
			if companyRaw == "" {
				companyRaw = strings.TrimSpace(value)
			}
		default:
			fields[m.FieldKey()] = value
		}
	}

	var missing []string
	for _, family := range []string{alias.FamilyTankID, alias.FamilyTimestamp} {
		if !resolvedFamilies[family] {
			missing = append(missing, family)
		}
	}
	if len(missing) > 0 {
		return nil, &pkgerrors.ValidationError{MissingRequired: missing, UnmappedFields: unmapped}
	}
	if tankID == "" {
		return nil, &pkgerrors.ValidationError{MissingRequired: []string{alias.FamilyTankID}, UnmappedFields: unmapped}
	}

	reportedAt := p.resolveTimestamp(timestampRaw, event.ReceivedAt)
	weekID := WeekID(reportedAt, p.loc)
	company := p.resolveCompany(companyRaw, event.SourceID)

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	if unmapped == nil {
		unmapped = []string{}
	}
	unmappedJSON, err := json.Marshal(unmapped)
	if err != nil {
		return nil, fmt.Errorf("marshal unmapped fields: %w", err)
	}

	return &reports.NormalizedResponse{
		EventID:        event.EventID,
		SourceID:       event.SourceID,
		CompanyKey:     company,
		TankID:         tankID,
		WeekID:         weekID,
		ReceivedAt:     event.ReceivedAt,
		Fields:         datatypes.JSON(fieldsJSON),
		UnmappedFields: datatypes.JSON(unmappedJSON),
	}, nil
}

func decodePayload(raw datatypes.JSON) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, &pkgerrors.ValidationError{MissingRequired: []string{"payload"}}
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &pkgerrors.ValidationError{MissingRequired: []string{"payload"}}
	}
	if len(payload) == 0 {
		return nil, &pkgerrors.ValidationError{MissingRequired: []string{"payload"}}
	}
	return payload, nil
}

// resolveTimestamp accepts RFC3339/common datetime strings and spreadsheet
// serial numbers; anything else falls back to the event's own received_at.
func (p *Parser) resolveTimestamp(raw string, receivedAt time.Time) time.Time {
	if raw == "" {
		return receivedAt
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02/01/2006 15:04:05",
		"02/01/2006",
	} {
		if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= serialMin && serial <= serialMax {
		return sheetEpoch.Add(time.Duration(serial * float64(24*time.Hour))).In(p.loc)
	}
	return receivedAt
}

func (p *Parser) resolveCompany(companyRaw, sourceID string) string {
	if companyRaw != "" {
		if token := p.resolver.CanonicalCompany(companyRaw); token != "" && p.stds.IsActiveCompany(token) {
			return token
		}
	}
	if token := p.resolver.InferCompany(sourceID, sourceID); token != "" && p.stds.IsActiveCompany(token) {
		return token
	}
	return reports.CompanyUnknown
}

// WeekID formats the ISO year-week of t evaluated in loc.
func WeekID(t time.Time, loc *time.Location) string {
	year, week := t.In(loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func scalarString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
