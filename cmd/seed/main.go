// Command seed bulk-loads expense records from a CSV file. The add form
// only accepts categories and descriptions that already exist in the store,
// so a fresh database needs its initial vocabulary loaded here.
//
// CSV rows are: category,description,amount,date (date as YYYY-MM-DD,
// may be empty). A header row is detected and skipped.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RahulSJav/Expenses/internal/models"
	"github.com/RahulSJav/Expenses/internal/service"
	"github.com/RahulSJav/Expenses/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "Path to CSV file (category,description,amount,date)")
	dbPath := fs.String("db", "expenses.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *file == "" {
		fmt.Fprintln(stdout, "Usage: seed -file <expenses.csv> [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: file")
	}

	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "expenses.db" {
		*dbPath = path
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	expenses, err := parseCSV(f)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return fmt.Errorf("no records found in %s", *file)
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for i := range expenses {
		if err := db.CreateExpense(&expenses[i]); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}

	fmt.Fprintf(stdout, "Seeded %d expense records\n", len(expenses))
	return nil
}

func parseCSV(r io.Reader) ([]models.Expense, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	var expenses []models.Expense
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		line++

		// Skip a header row
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "category") {
			continue
		}

		category := strings.TrimSpace(record[0])
		description := strings.TrimSpace(record[1])
		if category == "" || description == "" {
			return nil, fmt.Errorf("line %d: category and description are required", line)
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, record[2])
		}

		date := strings.TrimSpace(record[3])
		if date != "" {
			if _, err := time.Parse(service.DateLayout, date); err != nil {
				return nil, fmt.Errorf("line %d: invalid date %q (want YYYY-MM-DD)", line, record[3])
			}
		}

		expenses = append(expenses, models.Expense{
			Category:    category,
			Description: description,
			Amount:      amount,
			Date:        date,
		})
	}

	return expenses, nil
}
