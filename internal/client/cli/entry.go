package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nchiang/moodiary/internal/client/diary"
	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/sentiment"
)

// Write reads a multi-line entry body and saves it for today. Offline saves
// are queued locally and flagged in the output.
func (a *App) Write(ctx context.Context) error {
	content, err := GetMultiline(a.reader, "Write today's entry", os.Stdout)
	if err != nil {
		return err
	}

	entry, err := a.service.Save(ctx, a.currentUserID(), content, nil)
	if err != nil {
		a.logger.Error(ctx, "save failed", "error", err)
		printlnFn("Could not save the entry:", err.Error())
		return err
	}

	if entry.LocalPending {
		printlnFn("Saved locally, will sync when back online.")
	} else {
		printlnFn("Saved.")
	}
	printlnFn("Mood:", describeSentiment(entry.Sentiment))
	return nil
}

// Edit rewrites the content of an entry picked by id prefix.
func (a *App) Edit(ctx context.Context) error {
	entry, err := a.pickEntry(a.lastEntries(), "Enter entry id to edit")
	if err != nil {
		return err
	}

	content, err := GetMultiline(a.reader, "New content", os.Stdout)
	if err != nil {
		return err
	}

	updated, err := a.service.Edit(ctx, a.currentUserID(), entry, content)
	if err != nil {
		a.logger.Error(ctx, "edit failed", "error", err)
		printlnFn("Could not edit the entry:", err.Error())
		return err
	}

	printlnFn("Updated. Mood:", describeSentiment(updated.Sentiment))
	return nil
}

// Delete soft-deletes an entry, moving it to the trash view.
func (a *App) Delete(ctx context.Context) error {
	entry, err := a.pickEntry(a.lastEntries(), "Enter entry id to delete")
	if err != nil {
		return err
	}

	if err := a.service.SoftDelete(ctx, a.currentUserID(), entry); err != nil {
		a.logger.Error(ctx, "delete failed", "error", err)
		printlnFn("Could not delete the entry:", err.Error())
		return err
	}

	printlnFn("Moved to trash. Use 'restore' to bring it back.")
	return nil
}

// List refreshes the merged view and prints it. A refresh failure keeps the
// previously rendered list.
func (a *App) List(ctx context.Context) error {
	entries, err := a.rec.Refresh(ctx, a.currentUserID(), !a.monitor.Online())
	if err != nil {
		a.logger.Error(ctx, "refresh failed", "error", err)
		printlnFn("Could not refresh, showing the last known list.")
		a.printEntries(a.lastEntries())
		return err
	}

	a.setEntries(entries)
	a.printEntries(entries)
	return nil
}

// Search filters the last listed entries by substring.
func (a *App) Search(ctx context.Context) error {
	query, err := getSimpleText(a.reader, "Search for", os.Stdout)
	if err != nil {
		return err
	}
	a.printEntries(diary.Search(a.lastEntries(), query))
	return nil
}

func (a *App) printEntries(entries []*models.Entry) {
	if len(entries) == 0 {
		printlnFn("No entries.")
		return
	}
	for _, e := range entries {
		marker := " "
		if e.LocalPending {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s %s  [%s]  %s  (%s)",
			marker, e.Date, describeSentiment(e.Sentiment), firstLine(e.Content), shortID(e.ID)))
	}
}

// pickEntry resolves a user-typed id (full or unambiguous prefix) against the
// given list.
func (a *App) pickEntry(entries []*models.Entry, prompt string) (*models.Entry, error) {
	id, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return nil, err
	}

	var match *models.Entry
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			if match != nil {
				printlnFn("Ambiguous id, type more characters.")
				return nil, fmt.Errorf("ambiguous id %q", id)
			}
			match = e
		}
	}
	if match == nil {
		printlnFn("No such entry. Run 'list' first.")
		return nil, fmt.Errorf("unknown id %q", id)
	}
	return match, nil
}

func describeSentiment(s sentiment.Sentiment) string {
	return fmt.Sprintf("%s %.2f", s.Label, s.Score)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len([]rune(s)) > 40 {
		return string([]rune(s)[:40]) + "…"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
