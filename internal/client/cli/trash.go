package cli

import (
	"context"
	"fmt"
	"os"
)

// Trash lists soft-deleted entries.
func (a *App) Trash(ctx context.Context) error {
	entries, err := a.service.Trash(ctx, a.currentUserID())
	if err != nil {
		a.logger.Error(ctx, "trash read failed", "error", err)
		printlnFn("Could not read the trash:", err.Error())
		return err
	}

	if len(entries) == 0 {
		printlnFn("Trash is empty.")
		return nil
	}
	for _, e := range entries {
		printlnFn(fmt.Sprintf("  %s  %s  (%s)", e.Date, firstLine(e.Content), shortID(e.ID)))
	}
	return nil
}

// Restore brings a trashed entry back into the primary view.
func (a *App) Restore(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter entry id to restore", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.service.Restore(ctx, a.currentUserID(), id); err != nil {
		a.logger.Error(ctx, "restore failed", "error", err)
		printlnFn("Could not restore the entry:", err.Error())
		return err
	}
	printlnFn("Restored.")
	return nil
}

// Purge permanently deletes a trashed entry after confirmation.
func (a *App) Purge(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter entry id to permanently delete", os.Stdout)
	if err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader, "This cannot be undone. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		printlnFn("Cancelled.")
		return nil
	}

	if err := a.service.Purge(ctx, a.currentUserID(), id); err != nil {
		a.logger.Error(ctx, "purge failed", "error", err)
		printlnFn("Could not purge the entry:", err.Error())
		return err
	}
	printlnFn("Permanently deleted.")
	return nil
}

// Sync forces a drain and refresh pass, same as an offline-to-online edge.
func (a *App) Sync(ctx context.Context) error {
	a.monitor.HandleOnline(ctx)
	return nil
}
