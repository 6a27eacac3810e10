// Package parser turns raw statement text into transaction records.
// It recognizes the card-statement layout where each record line
// carries a transaction date, a posting date, free text, and a
// trailing amount with an optional credit marker.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"rufous/internal/location"
	"rufous/internal/logger"
	"rufous/internal/models"

	"github.com/shopspring/decimal"
)

const (
	sectionStart = "Transactions since your last statement"
	sectionEnd   = "Subtotal for"
)

var (
	// "Oct. 12 Oct. 14 CITIBIK*SUBSCRIPTION SAN FRANCISCOCA 29.22"
	dateLine   = regexp.MustCompile(`^([A-Za-z]{3}\.?\s+\d{1,2})\s+([A-Za-z]{3}\.?\s+\d{1,2})\s+(.+)`)
	datePrefix = regexp.MustCompile(`^[A-Za-z]{3}\.?\s+\d{1,2}`)
	amountTail = regexp.MustCompile(`(\d+(?:,\d{3})*\.\d{2})(\s+CR)?$`)

	// "USD 20.68@1.412959381" conversion prefix on foreign purchases.
	currencyConversion = regexp.MustCompile(`^[A-Z]{3}\s+[\d.]+@[\d.]+\s*`)
	continuedMarker    = regexp.MustCompile(`(?i)\s*\(continued on next page\)`)
	whitespace         = regexp.MustCompile(`\s+`)
)

// Statement boilerplate that looks like a transaction line but is not.
var skipWords = []string{
	"SUBTOTAL", "TOTAL FOR CARD", "AUTOMATIC PYMT", "PAYMENT RECEIVED",
	"PYMT RECEIVED", "AUTO PAYMENT", "AUTOPAY",
}

var transferKeywords = []string{
	"PAYMENT", "PYMT", "AUTOPAY", "AUTOMATIC PAYMENT",
	"TRANSFER", "TRSF", "DIRECT DEBIT", "PREAUTH", "PRE-AUTH",
	"CREDIT CARD PAYMENT", "ONLINE PAYMENT", "PAYPAL TRANSFER",
	"INTERAC TRANSFER", "E-TRANSFER", "PAYMENT RECEIVED",
	"AUTO PAYMENT", "FROM/DE ACCT", "TO/A ACCT",
}

// Payment-processor prefixes that are joined with the next token when
// deriving the merchant.
var processorPrefixes = map[string]struct{}{
	"SQ": {}, "TST-": {},
}

// Parser scans statement text line by line. Dates in statement text
// carry no year, so the target year is supplied at construction.
type Parser struct {
	extractor *location.Extractor
	year      int
}

// New returns a parser that resolves dates against year.
func New(extractor *location.Extractor, year int) *Parser {
	return &Parser{extractor: extractor, year: year}
}

// Parse extracts transaction records from raw statement text. Lines
// before the section-start marker are ignored; scanning stops at the
// section-end marker. Malformed lines are skipped, not fatal: a
// statement yielding zero transactions is a valid empty result.
func (p *Parser) Parse(rawText string, accountType models.AccountType, source string) []models.Transaction {
	lines := strings.Split(rawText, "\n")
	inTransactions := false
	var txs []models.Transaction

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if strings.Contains(line, sectionStart) {
			inTransactions = true
			continue
		}
		if strings.Contains(line, sectionEnd) {
			break
		}
		if !inTransactions || line == "" {
			continue
		}

		m := dateLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		transDate, err := p.parseDate(m[1])
		if err != nil {
			logger.Get().Debugf("skipping line with unparseable transaction date %q: %v", m[1], err)
			continue
		}
		postingDate, err := p.parseDate(m[2])
		if err != nil {
			logger.Get().Debugf("skipping line with unparseable posting date %q: %v", m[2], err)
			continue
		}

		rest := m[3]
		am := amountTail.FindStringSubmatchIndex(rest)
		if am == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(rest[am[2]:am[3]], ",", ""))
		if err != nil {
			continue
		}

		// No credit marker means a purchase: force the amount negative.
		// This is the fixed card-statement convention, not configurable.
		isCredit := am[4] != -1
		if !isCredit {
			amount = amount.Neg()
		}

		desc := strings.TrimSpace(rest[:am[0]])
		desc = currencyConversion.ReplaceAllString(desc, "")

		// A following line that does not itself start with a date is a
		// description continuation.
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !datePrefix.MatchString(next) {
				desc += " " + next
				i++
			}
		}

		desc = strings.TrimSpace(whitespace.ReplaceAllString(desc, " "))
		desc = strings.TrimSpace(continuedMarker.ReplaceAllString(desc, ""))

		if containsAny(strings.ToUpper(desc), skipWords) {
			continue
		}
		if desc == "" {
			continue
		}

		loc, cleaned := p.extractor.Extract(desc)

		txs = append(txs, models.Transaction{
			TransactionDate: transDate,
			PostingDate:     &postingDate,
			Description:     cleaned,
			Location:        loc,
			Amount:          amount,
			Merchant:        extractMerchant(cleaned),
			AccountType:     accountType,
			IsTransfer:      isTransfer(desc),
			StatementSource: source,
		})
	}

	return txs
}

// parseDate resolves "Oct. 12" / "Oct 12" against the parser's year.
func (p *Parser) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	return time.Parse("Jan 2 2006", s+" "+strconv.Itoa(p.year))
}

// extractMerchant takes the first token of the cleaned description,
// joining payment-processor prefixes with the following token.
func extractMerchant(description string) string {
	parts := strings.Fields(description)
	if len(parts) == 0 {
		return ""
	}
	if _, ok := processorPrefixes[parts[0]]; ok && len(parts) > 1 {
		return parts[0] + " " + parts[1]
	}
	return parts[0]
}

// isTransfer checks the pre-cleaning description against the transfer
// vocabulary. The manual-import path uses a narrower check.
func isTransfer(description string) bool {
	return containsAny(strings.ToUpper(description), transferKeywords)
}

func containsAny(upper string, words []string) bool {
	for _, w := range words {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}
