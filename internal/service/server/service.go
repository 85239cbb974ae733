package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/oshokin/fall-guard/internal/chat"
	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
	"github.com/oshokin/fall-guard/internal/repository/store"
	"github.com/oshokin/fall-guard/internal/service/emergency"
	"github.com/oshokin/fall-guard/internal/service/surface"
)

// Collection names inside the record store.
const (
	profileCollection    = "profile"
	medicationCollection = "medication"
)

// assembly is a surface together with the resources it owns.
type assembly struct {
	surface *surface.Surface
	db      *badger.DB
	mailbox *mailbox.FileRepository
}

// newAssembly opens the record store and wires the surface from settings.
func newAssembly(ctx context.Context, cfg *config.Config, inMemory bool) (*assembly, error) {
	if cfg == nil {
		return nil, errors.New("settings are required")
	}

	db, err := store.Open(store.Config{
		Path:       cfg.StoreDir,
		InMemory:   inMemory,
		SyncWrites: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	profiles := store.NewCollection[health.Profile](db, profileCollection)
	medications := store.NewCollection[health.Medication](db, medicationCollection)
	slot := mailbox.NewFileRepository(cfg.MailboxFile)

	svc := surface.New(surface.Dependencies{
		Mailbox:     slot,
		Profiles:    profiles,
		Medications: medications,
		Chat: chat.New(chat.Config{
			APIKey:  cfg.Chat.APIKey,
			Model:   cfg.Chat.Model,
			BaseURL: cfg.Chat.BaseURL,
		}),
		Emergency:           emergency.NewDialer(profiles, cfg.EmergencyCommand),
		ConfirmationTimeout: cfg.ConfirmationTimeout,
	})

	logger.InfoKV(ctx, "Surface assembled",
		"mailbox_file", slot.Path(),
		"store_dir", cfg.StoreDir,
		"confirmation_timeout", cfg.ConfirmationTimeout.String(),
	)

	return &assembly{
		surface: svc,
		db:      db,
		mailbox: slot,
	}, nil
}

// Close releases the record store.
func (a *assembly) Close(ctx context.Context) {
	if err := a.db.Close(); err != nil {
		logger.ErrorKV(ctx, "Closing record store failed", "error", err)
	}
}
