package parser

import (
	"rufous/internal/logger"
	"rufous/internal/models"
)

// Deduplicate removes records that repeat an already-seen
// (date, description, amount) tuple. Order is preserved and the first
// occurrence wins. The operation is idempotent.
func Deduplicate(txs []models.Transaction) []models.Transaction {
	seen := make(map[[3]string]struct{}, len(txs))
	unique := make([]models.Transaction, 0, len(txs))

	for _, tx := range txs {
		key := [3]string{tx.TransactionDate.Format("2006-01-02"), tx.Description, tx.Amount.String()}
		if _, ok := seen[key]; ok {
			logger.Get().Debugf("duplicate transaction removed: %s on %s", tx.Description, key[0])
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, tx)
	}

	return unique
}
