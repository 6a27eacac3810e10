package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rufous/internal/categorize"
	"rufous/internal/database"
	"rufous/internal/extractor"
	"rufous/internal/location"
	"rufous/internal/logger"
	"rufous/internal/models"
	"rufous/internal/parser"
	"rufous/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Ingest error: %v", err)
	}
}

func run() error {
	var (
		filePath    = flag.String("file", "", "path to a PDF statement or, with -text, a plain text dump")
		accountType = flag.String("type", "debit", "account type: debit or credit")
		year        = flag.Int("year", 0, "statement year for dates without one (default STATEMENT_YEAR or current year)")
		isText      = flag.Bool("text", false, "treat -file as already-extracted text instead of a PDF")
	)
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	statementYear := *year
	if statementYear == 0 {
		if v := os.Getenv("STATEMENT_YEAR"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid STATEMENT_YEAR value %q: %w", v, err)
			}
			statementYear = parsed
		}
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	locationExtractor := location.NewExtractor()
	statementParser := parser.New(locationExtractor, statementYear)
	categorizer := categorize.New()

	db := dbManager.DB()
	statementService := services.NewStatementService(db, statementParser, categorizer)
	ruleService := services.NewRuleService(db, categorizer)
	if err := ruleService.LoadRules(); err != nil {
		return fmt.Errorf("failed to load custom rules: %w", err)
	}

	var rawText string
	if *isText {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}
		rawText = string(data)
	} else {
		rawText, err = extractor.ExtractText(*filePath)
		if err != nil {
			return fmt.Errorf("failed to extract text from PDF: %w", err)
		}
	}

	result, err := statementService.IngestText(rawText, filepath.Base(*filePath), models.AccountType(*accountType))
	if err != nil {
		return err
	}

	logger.Get().Infof("Ingested %s: parsed %d transactions, added %d new",
		result.Statement.Filename, result.Parsed, result.Added)
	return nil
}
