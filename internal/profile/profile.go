// Package profile is the Profile Manager: a versioned markdown user
// profile, refreshed on a cadence by summarizing recent activity entries
// through the model and rewriting the profile atomically (spec.md §4.9).
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"screenlog/internal/atomicfile"
	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
)

const updatePrompt = `You maintain a concise running profile of what this user does, in markdown, written in a neutral third-person voice. Given their current profile and a block of recent activity, decide whether the profile needs updating and, if so, produce the full revised document. Respond with a single JSON object {"summary": "one sentence describing what changed", "changed": bool, "updatedProfile": "full markdown document"} and nothing else.`

const defaultProfile = "# User Profile\n\n_No activity summarized yet._\n"

// Edit is one history entry: a reversible snapshot of a profile rewrite.
type Edit struct {
	Timestamp       time.Time `json:"timestamp"`
	Summary         string    `json:"summary"`
	PreviousContent string    `json:"previousContent"`
	NewContent      string    `json:"newContent"`
}

// document is the on-disk shape of profile-history.json.
type document struct {
	Edits []Edit `json:"edits"`
}

// historyCap is the maximum number of retained edits (spec.md §4.9: capped
// at 100, evict oldest).
const historyCap = 100

// Manager owns the profile markdown file and its edit history.
type Manager struct {
	profilePath string
	historyPath string

	client llmtransport.Client
	model  string

	content    string
	lastUpdate time.Time
	history    document
}

// Open loads the profile and its history from dataDir, starting with the
// default empty profile if neither exists yet.
func Open(dataDir string, client llmtransport.Client, model string) (*Manager, error) {
	m := &Manager{
		profilePath: filepath.Join(dataDir, "user-profile.md"),
		historyPath: filepath.Join(dataDir, "profile-history.json"),
		client:      client,
		model:       model,
		content:     defaultProfile,
	}

	raw, err := atomicfile.Read(m.profilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
	} else {
		m.content = string(raw)
	}

	if err := atomicfile.ReadJSON(m.historyPath, &m.history); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
	}
	if len(m.history.Edits) > 0 {
		m.lastUpdate = m.history.Edits[0].Timestamp
	}
	return m, nil
}

// GetProfile returns the current profile markdown.
func (m *Manager) GetProfile() string { return m.content }

// LastUpdate returns the timestamp of the most recent edit, or the zero
// time if the profile has never been updated.
func (m *Manager) LastUpdate() time.Time { return m.lastUpdate }

// IsDue reports whether at least intervalHours has elapsed since the last
// update (or the profile has never been updated at all).
func (m *Manager) IsDue(intervalHours int) bool {
	if m.lastUpdate.IsZero() {
		return true
	}
	return time.Since(m.lastUpdate) >= time.Duration(intervalHours)*time.Hour
}

// UpdateResult is the outcome of an Update call.
type UpdateResult struct {
	Success bool
	Summary string
	Changed bool
}

// OnEvent is notified with a short status string as Update proceeds.
type OnEvent func(status string)

// Update implements update(entries, onEvent?) → {success, summary,
// changed} (spec.md §4.9): build a compact text block from entries,
// submit it alongside the current profile, and apply the model's
// response if well-formed.
func (m *Manager) Update(ctx context.Context, entries []domain.ActivityEntry, onEvent OnEvent) (UpdateResult, error) {
	if onEvent != nil {
		onEvent("summarizing")
	}

	block := buildEntryBlock(entries)
	messages := []llmtransport.Message{
		llmtransport.Text(llmtransport.RoleSystem, updatePrompt),
		llmtransport.Text(llmtransport.RoleUser, fmt.Sprintf("CURRENT PROFILE:\n%s\n\nRECENT ACTIVITY:\n%s", m.content, block)),
	}

	resp, err := m.client.Complete(ctx, llmtransport.CompletionRequest{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return UpdateResult{}, err
	}

	parsed, err := parseUpdateResponse(resp.Text)
	if err != nil {
		if onEvent != nil {
			onEvent("parse failed")
		}
		return UpdateResult{Success: false}, nil
	}

	if !parsed.Changed {
		if onEvent != nil {
			onEvent("no change")
		}
		return UpdateResult{Success: true, Summary: parsed.Summary, Changed: false}, nil
	}

	if err := m.applyEdit(parsed.Summary, m.content, parsed.UpdatedProfile); err != nil {
		return UpdateResult{}, err
	}
	if onEvent != nil {
		onEvent("updated")
	}
	return UpdateResult{Success: true, Summary: parsed.Summary, Changed: true}, nil
}

// UpdateForRange is a convenience wrapper used by the CLI's profile-update
// command to update from a caller-resolved slice without threading a
// separate code path through Update.
func (m *Manager) UpdateForRange(ctx context.Context, entries []domain.ActivityEntry) (UpdateResult, error) {
	return m.Update(ctx, entries, nil)
}

// UpdateEntries adapts Update to the narrow (changed, error) shape the
// Indexing Pipeline's ProfileUpdater interface expects.
func (m *Manager) UpdateEntries(ctx context.Context, entries []domain.ActivityEntry) (bool, error) {
	res, err := m.Update(ctx, entries, nil)
	if err != nil {
		return false, err
	}
	return res.Changed, nil
}

// History returns edits newest-first.
func (m *Manager) History() []Edit {
	out := make([]Edit, len(m.history.Edits))
	copy(out, m.history.Edits)
	return out
}

// RestoreFromHistory implements spec.md §4.9's Restore protocol:
// editIndex 0 is the most recent edit; restoring writes a new edit whose
// previousContent is the current file and whose newContent is the chosen
// edit's previousContent, preserving reversibility.
func (m *Manager) RestoreFromHistory(editIndex int) error {
	if editIndex < 0 || editIndex >= len(m.history.Edits) {
		return fmt.Errorf("profile: edit index %d out of range", editIndex)
	}
	chosen := m.history.Edits[editIndex]
	return m.applyEdit(
		fmt.Sprintf("restored to edit from %s", chosen.Timestamp.Format(time.RFC3339)),
		m.content,
		chosen.PreviousContent,
	)
}

// applyEdit records a history entry and atomically rewrites the profile
// file, evicting the oldest edit once historyCap is exceeded.
func (m *Manager) applyEdit(summary, previousContent, newContent string) error {
	edit := Edit{
		Timestamp:       time.Now().UTC(),
		Summary:         summary,
		PreviousContent: previousContent,
		NewContent:      newContent,
	}
	m.history.Edits = append([]Edit{edit}, m.history.Edits...)
	if len(m.history.Edits) > historyCap {
		m.history.Edits = m.history.Edits[:historyCap]
	}

	if err := atomicfile.Write(m.profilePath, []byte(newContent)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
	}
	if err := atomicfile.WriteJSON(m.historyPath, m.history); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
	}

	m.content = newContent
	m.lastUpdate = edit.Timestamp
	return nil
}

// buildEntryBlock renders a compact per-entry text block (date, time, app,
// activity, key metadata, tags) for the summarization prompt.
func buildEntryBlock(entries []domain.ActivityEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s %s | %s | %s | %s", e.Date, e.Time, e.App, e.Activity, e.Summary)
		if len(e.Tags) > 0 {
			fmt.Fprintf(&b, " | tags: %s", strings.Join(e.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

type wireUpdateResponse struct {
	Summary        string `json:"summary"`
	Changed        bool   `json:"changed"`
	UpdatedProfile string `json:"updatedProfile"`
}

func parseUpdateResponse(raw string) (wireUpdateResponse, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return wireUpdateResponse{}, fmt.Errorf("%w: empty response", domain.ErrProfileParse)
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return wireUpdateResponse{}, fmt.Errorf("%w: %v", domain.ErrProfileParse, err)
	}

	var w wireUpdateResponse
	if err := json.Unmarshal([]byte(repaired), &w); err != nil {
		return wireUpdateResponse{}, fmt.Errorf("%w: %v", domain.ErrProfileParse, err)
	}
	if w.Changed && strings.TrimSpace(w.UpdatedProfile) == "" {
		return wireUpdateResponse{}, fmt.Errorf("%w: changed=true with empty updatedProfile", domain.ErrProfileParse)
	}
	return w, nil
}
