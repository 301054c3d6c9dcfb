// Command seed imports an event and its participants from a JSON file
// and prints the invite code.
//
//	seed -file event.json [-db ./data/splitledger.db]
//
// The file looks like:
//
//	{
//	  "name": "Ski trip",
//	  "base_currency": "EUR",
//	  "participants": [
//	    {"name": "Alice", "email": "alice@example.com", "iban": "NL91ABNA0417164300", "bic": "ABNANL2A"},
//	    {"name": "Bob"}
//	  ]
//	}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

type eventFile struct {
	Name         string            `json:"name" validate:"required"`
	BaseCurrency string            `json:"base_currency"`
	Participants []participantFile `json:"participants" validate:"required,min=1,dive"`
}

type participantFile struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	IBAN  string `json:"iban" validate:"required_with=BIC"`
	BIC   string `json:"bic" validate:"required_with=IBAN"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	file := flag.String("file", "", "event JSON file to import")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logging.SetupWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	event, err := readEvent(*file, cfg.BaseCurrency)
	if err != nil {
		slog.Error("Failed to read event file", "file", *file, "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.CreateEvent(context.Background(), event); err != nil {
		slog.Error("Failed to create event", "error", err)
		os.Exit(1)
	}

	slog.Info("Event imported",
		"event_id", event.ID,
		"participants_count", len(event.Participants),
		"database", *dbPath,
	)
	fmt.Println(event.InviteCode)
}

func readEvent(path, defaultCurrency string) (*models.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var in eventFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := validator.New().Struct(in); err != nil {
		return nil, fmt.Errorf("invalid event file: %w", err)
	}
	if in.BaseCurrency == "" {
		in.BaseCurrency = defaultCurrency
	}
	base, err := currency.Normalize(in.BaseCurrency)
	if err != nil {
		return nil, err
	}

	event := &models.Event{Name: in.Name, BaseCurrency: base}
	for _, p := range in.Participants {
		event.Participants = append(event.Participants, models.Participant{
			Name:  p.Name,
			Email: p.Email,
			IBAN:  p.IBAN,
			BIC:   p.BIC,
		})
	}
	return event, nil
}
