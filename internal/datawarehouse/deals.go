package datawarehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
)

// dealColumns are read from the deal table in this order
var dealColumns = []string{
	"Id", "DealName", "Amount", "Region", "Stage", "ClosingDate", "DealType", "Probability", "OwnerName",
}

// DealQuery returns the query that reads every deal of table in a stable order
func DealQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY Id", strings.Join(dealColumns, ", "), table)
}

// GetDeals reads all deals from the configured deal table
func (c *Client) GetDeals(ctx context.Context) ([]domain.DealRecord, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("data warehouse client not initialized")
	}

	rows, err := c.ExecuteQuery(ctx, DealQuery(c.dealTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}

	records := make([]domain.DealRecord, len(rows))
	for i, row := range rows {
		records[i] = RecordFromRow(row)
	}
	return records, nil
}

// RecordFromRow converts a scanned deal row. NULL and unexpected values fall
// back to the same defaults as JSON input.
func RecordFromRow(row map[string]interface{}) domain.DealRecord {
	return domain.DealRecord{
		ID:          columnText(row["Id"]),
		Name:        columnText(row["DealName"]),
		Amount:      domain.ParseAmount(columnText(row["Amount"])),
		Region:      strings.TrimSpace(columnText(row["Region"])),
		Stage:       strings.TrimSpace(columnText(row["Stage"])),
		ClosingDate: columnDate(row["ClosingDate"]),
		DealType:    columnText(row["DealType"]),
		Probability: domain.ParseProbability(columnText(row["Probability"])),
		Owner:       columnText(row["OwnerName"]),
	}
}

func columnText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		// DECIMAL and MONEY columns scan as bytes
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func columnDate(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(columnText(v))
}
