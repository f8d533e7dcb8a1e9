package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Directory maps tenants to notification destinations in tenant_destinations.
type Directory struct {
	db     DBTX
	logger *slog.Logger
}

// NewDirectory creates a Directory on db.
func NewDirectory(db DBTX, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		db:     db,
		logger: logger.With("component", "destination_directory"),
	}
}

// Lookup returns the destination linked to tenantID, or ErrDestinationNotFound.
func (d *Directory) Lookup(ctx context.Context, tenantID string) (string, error) {
	var chatID string
	err := d.db.QueryRowContext(ctx,
		`SELECT chat_id FROM tenant_destinations WHERE tenant_id = $1`,
		tenantID,
	).Scan(&chatID)
	if err != nil {
		return "", MapError(err)
	}
	return chatID, nil
}

// Link records chatID as the destination of tenantID, replacing any previous one.
func (d *Directory) Link(ctx context.Context, tenantID, chatID string) error {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(chatID) == "" {
		return fmt.Errorf("%w: tenant and chat id are required", ErrInvalidDestination)
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tenant_destinations (tenant_id, chat_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id) DO UPDATE
		SET chat_id = EXCLUDED.chat_id, updated_at = EXCLUDED.updated_at
	`, tenantID, chatID)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to link destination",
			"tenant_id", tenantID,
			"error", err)
		return fmt.Errorf("link destination: %w", MapError(err))
	}

	d.logger.InfoContext(ctx, "destination linked", "tenant_id", tenantID)
	return nil
}

// StaticDirectory is an in-memory destination directory used when no database
// is configured.
type StaticDirectory struct {
	mu    sync.RWMutex
	links map[string]string
}

// NewStaticDirectory creates a StaticDirectory seeded with links.
func NewStaticDirectory(links map[string]string) *StaticDirectory {
	d := &StaticDirectory{links: make(map[string]string, len(links))}
	for tenant, chat := range links {
		d.links[tenant] = chat
	}
	return d
}

// Lookup returns the destination linked to tenantID, or ErrDestinationNotFound.
func (d *StaticDirectory) Lookup(_ context.Context, tenantID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	chat, ok := d.links[tenantID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDestinationNotFound, tenantID)
	}
	return chat, nil
}

// Link records chatID as the destination of tenantID.
func (d *StaticDirectory) Link(_ context.Context, tenantID, chatID string) error {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(chatID) == "" {
		return fmt.Errorf("%w: tenant and chat id are required", ErrInvalidDestination)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.links[tenantID] = chatID
	return nil
}
