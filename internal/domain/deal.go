package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// UnassignedRegion is used for deals that carry no region
const UnassignedRegion = "Unassigned"

// UnassignedOwner is used for deals that carry no owner
const UnassignedOwner = "Unassigned"

// ClosedWonStage is the exact stage label counted as achieved revenue
const ClosedWonStage = "Closed Won"

var hundred = decimal.NewFromInt(100)

// DealRecord is one CRM deal as read from a snapshot. Every field is optional:
//
//   - Amount: 0 when absent, non-numeric or negative
//   - Probability: 0 when absent or non-numeric, clamped to 0..100
//   - Region: empty means UnassignedRegion
//   - Stage: empty means the deal has no stage
//   - ClosingDate: raw text, resolved to a quarter by the fiscal calendar
//   - DealType: empty means unknown type
//   - Name, Owner, ID: display only
//
// Negative amounts and probabilities above 100 are not passed through as a
// plain float parse would: a CRM export that carries credit notes as negative
// deals contributes 0 for them, so pipeline sums never decrease.
//
// Field names from both the dashboard export (camelCase) and Zoho CRM
// (Deal_Name, Closing_Date, ...) are accepted when decoding.
type DealRecord struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Region      string          `json:"region,omitempty"`
	Stage       string          `json:"stage,omitempty"`
	ClosingDate string          `json:"closingDate,omitempty"`
	DealType    string          `json:"dealType,omitempty"`
	Probability decimal.Decimal `json:"probability"`
	Owner       string          `json:"owner,omitempty"`
}

var dealFieldAliases = struct {
	id, name, amount, region, stage, closingDate, dealType, probability, owner []string
}{
	id:          []string{"id", "ID", "Id"},
	name:        []string{"name", "Deal_Name", "dealName"},
	amount:      []string{"amount", "Amount"},
	region:      []string{"region", "Region"},
	stage:       []string{"stage", "Stage"},
	closingDate: []string{"closingDate", "Closing_Date", "closing_date"},
	dealType:    []string{"dealType", "Type", "type", "deal_type"},
	probability: []string{"probability", "Probability"},
	owner:       []string{"owner", "Owner"},
}

// UnmarshalJSON decodes a loosely typed deal. Anything that is not a JSON
// object decodes to a record with every field absent and no error.
func (d *DealRecord) UnmarshalJSON(data []byte) error {
	*d = DealRecord{Amount: decimal.Zero, Probability: decimal.Zero}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}

	d.ID = lookupText(fields, dealFieldAliases.id)
	d.Name = lookupText(fields, dealFieldAliases.name)
	d.Region = strings.TrimSpace(lookupText(fields, dealFieldAliases.region))
	d.Stage = strings.TrimSpace(lookupText(fields, dealFieldAliases.stage))
	d.ClosingDate = strings.TrimSpace(lookupText(fields, dealFieldAliases.closingDate))
	d.DealType = lookupText(fields, dealFieldAliases.dealType)
	d.Owner = lookupOwner(fields, dealFieldAliases.owner)
	d.Amount = ParseAmount(lookupText(fields, dealFieldAliases.amount))
	d.Probability = ParseProbability(lookupText(fields, dealFieldAliases.probability))
	return nil
}

// RegionOrDefault returns the deal region or UnassignedRegion
func (d DealRecord) RegionOrDefault() string {
	if d.Region == "" {
		return UnassignedRegion
	}
	return d.Region
}

// OwnerOrDefault returns the owner name, or "Unassigned" for deals without one
func (d DealRecord) OwnerOrDefault() string {
	if strings.TrimSpace(d.Owner) == "" {
		return UnassignedOwner
	}
	return d.Owner
}

// HasStage reports whether the deal carries a stage label
func (d DealRecord) HasStage() bool {
	return d.Stage != ""
}

// IsClosedWon reports an exact "Closed Won" stage match
func (d DealRecord) IsClosedWon() bool {
	return d.Stage == ClosedWonStage
}

// IsClosed reports whether the stage mentions "closed" in any case
func (d DealRecord) IsClosed() bool {
	return strings.Contains(strings.ToLower(d.Stage), "closed")
}

// WeightedAmount returns amount * probability / 100
func (d DealRecord) WeightedAmount() decimal.Decimal {
	return d.Amount.Mul(d.Probability).Div(hundred)
}

// ParseAmount parses a monetary amount. Unparseable or negative input yields 0.
func ParseAmount(s string) decimal.Decimal {
	v, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// ParseProbability parses a percentage. Unparseable input yields 0; the result is clamped to 0..100.
func ParseProbability(s string) decimal.Decimal {
	v, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	return strings.ReplaceAll(s, ",", "")
}

// lookupText returns the first alias present as a string or number
func lookupText(fields map[string]json.RawMessage, aliases []string) string {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if text, ok := rawText(raw); ok {
			return text
		}
	}
	return ""
}

// lookupOwner accepts either a plain name or a Zoho lookup object {"name": ...}
func lookupOwner(fields map[string]json.RawMessage, aliases []string) string {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if text, ok := rawText(raw); ok {
			return text
		}
		var lookup struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &lookup); err == nil && lookup.Name != "" {
			return lookup.Name
		}
	}
	return ""
}

func rawText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), true
	}
	return "", false
}
