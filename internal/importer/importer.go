// Package importer handles the manual JSON import path, used when
// text extraction fails and transactions are supplied by hand.
package importer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rufous/internal/logger"
	"rufous/internal/models"

	"github.com/shopspring/decimal"
)

// Accepted date layouts, tried in order, for dates that are not
// structurally ISO.
var dateLayouts = []string{"01/02/2006", "01/02/06", "2006-01-02"}

type record struct {
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Balance     *decimal.Decimal `json:"balance"`
	Merchant    string           `json:"merchant"`
}

// Import parses a JSON array of transaction objects. Records missing
// any of date, description, or amount are dropped whole; there is no
// partial-field defaulting. A record with an unparseable date is
// dropped too. Sibling records are unaffected by dropped ones.
func Import(data []byte, statementFilename string, accountType models.AccountType) ([]models.Transaction, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	txs := make([]models.Transaction, 0, len(raw))
	for _, element := range raw {
		var rec record
		if err := json.Unmarshal(element, &rec); err != nil {
			logger.Get().Warnf("failed to clean transaction: %v", err)
			continue
		}
		if rec.Date == nil || rec.Description == nil || rec.Amount == nil {
			continue
		}

		date, ok := parseDate(*rec.Date)
		if !ok {
			logger.Get().Warnf("could not parse date: %s", *rec.Date)
			continue
		}

		description := strings.TrimSpace(*rec.Description)

		txs = append(txs, models.Transaction{
			TransactionDate: date,
			Description:     description,
			Amount:          *rec.Amount,
			Balance:         rec.Balance,
			Merchant:        strings.TrimSpace(rec.Merchant),
			AccountType:     accountType,
			// Narrower than the parser's transfer vocabulary; the two
			// paths have always diverged here.
			IsTransfer:      strings.Contains(strings.ToLower(description), "transfer"),
			StatementSource: statementFilename,
		})
	}

	return txs, nil
}

// parseDate accepts ISO dates directly when the string is structurally
// ISO (10 chars, two hyphens); anything else falls through the layout
// list in order.
func parseDate(s string) (time.Time, bool) {
	if len(s) == 10 && strings.Count(s, "-") == 2 {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
