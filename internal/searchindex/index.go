package searchindex

import (
	"encoding/json"
	"fmt"
	"strings"

	"screenlog/internal/domain"
)

// layerValues is the flattened per-layer metadata used both for the
// entries table (primary layer only) and for each row of the activities
// table.
type layerValues struct {
	appName, appCategory, windowTitle, bundleOrPath     string
	url, pageDomain, pageTitle, pageType                string
	videoPlatform, videoTitle, videoChannel              string
	videoDuration, videoPosition, videoState             string
	ideName, currentFile, filePath, language, projectName, gitBranch string
	terminalCWD, lastCommand, terminalShell, sshHost     string
	commApp, commChannel, commRecipient, commType        string
	docApp, docTitle, docType                            string
	activity, summary, tags                              string
}

func layerValuesOf(a domain.Activity) layerValues {
	v := layerValues{
		appName:     a.App.Name,
		appCategory: string(a.App.Category),
		windowTitle: a.App.WindowTitle,
		bundleOrPath: a.App.BundleOrPath,
		activity:    a.Activity,
		summary:     a.Summary,
		tags:        strings.Join(a.Tags, ","),
	}
	if a.Browser != nil {
		v.url = a.Browser.URL
		v.pageDomain = a.Browser.Domain
		v.pageTitle = a.Browser.PageTitle
		v.pageType = a.Browser.PageType
	}
	if a.Video != nil {
		v.videoPlatform = a.Video.Platform
		v.videoTitle = a.Video.Title
		v.videoChannel = a.Video.Channel
		v.videoDuration = a.Video.Duration
		v.videoPosition = a.Video.Position
		v.videoState = a.Video.State
	}
	if a.IDE != nil {
		v.ideName = a.IDE.IDE
		v.currentFile = a.IDE.CurrentFile
		v.filePath = a.IDE.FilePath
		v.language = a.IDE.Language
		v.projectName = a.IDE.ProjectName
		v.gitBranch = a.IDE.GitBranch
	}
	if a.Terminal != nil {
		v.terminalCWD = a.Terminal.CWD
		v.lastCommand = a.Terminal.LastCommand
		v.terminalShell = a.Terminal.Shell
		v.sshHost = a.Terminal.SSHHost
	}
	if a.Communication != nil {
		v.commApp = a.Communication.App
		v.commChannel = a.Communication.Channel
		v.commRecipient = a.Communication.Recipient
		v.commType = a.Communication.Type
	}
	if a.Document != nil {
		v.docApp = a.Document.App
		v.docTitle = a.Document.DocumentTitle
		v.docType = a.Document.DocumentType
	}
	return v
}

func (v layerValues) args() []any {
	return []any{
		v.appName, v.appCategory, v.windowTitle, v.bundleOrPath,
		v.url, v.pageDomain, v.pageTitle, v.pageType,
		v.videoPlatform, v.videoTitle, v.videoChannel, v.videoDuration, v.videoPosition, v.videoState,
		v.ideName, v.currentFile, v.filePath, v.language, v.projectName, v.gitBranch,
		v.terminalCWD, v.lastCommand, v.terminalShell, v.sshHost,
		v.commApp, v.commChannel, v.commRecipient, v.commType,
		v.docApp, v.docTitle, v.docType,
		v.activity, v.summary, v.tags,
	}
}

// primaryLayerOrSynth returns entry's primary layer, or a zero-value
// activity carrying only the entry's flattened fields if Activities is
// somehow empty (defensive: Validate should have already rejected that).
func primaryLayerOrSynth(entry domain.ActivityEntry) domain.Activity {
	if p := entry.PrimaryLayer(); p != nil {
		return *p
	}
	return domain.Activity{App: domain.App{Name: entry.App}, Activity: entry.Activity, Summary: entry.Summary, Tags: entry.Tags}
}

// IndexEntry upserts entry into the entries table and replaces all of its
// activities rows, inside a single transaction (spec.md §4.6 indexEntry,
// I1/I7).
func (d *DB) IndexEntry(entry domain.ActivityEntry) error {
	rawJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("searchindex: marshaling entry %s: %w", entry.Filename, err)
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	primary := primaryLayerOrSynth(entry)
	pv := layerValuesOf(primary)

	entryArgs := append([]any{entry.Filename, entry.Timestamp, entry.Date, entry.Time}, pv.args()...)
	entryArgs = append(entryArgs,
		entry.AudioRecordingID, entry.AudioTranscription,
		boolToInt(entry.IsContinuation), string(rawJSON),
	)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryColumns)), ",")
	query := fmt.Sprintf(`INSERT OR REPLACE INTO entries (%s) VALUES (%s)`, strings.Join(entryColumns, ","), placeholders)
	if _, err := tx.Exec(query, entryArgs...); err != nil {
		return fmt.Errorf("searchindex: upserting entry %s: %w", entry.Filename, err)
	}

	if _, err := tx.Exec(`DELETE FROM activities WHERE filename = ?`, entry.Filename); err != nil {
		return fmt.Errorf("searchindex: clearing old layers for %s: %w", entry.Filename, err)
	}

	layers := entry.Activities
	if len(layers) == 0 {
		layers = []domain.Activity{primary}
	}
	layerCols := append([]string{"filename", "layer"}, layerMetadataColumns...)
	layerPlaceholders := strings.TrimSuffix(strings.Repeat("?,", len(layerCols)), ",")
	layerQuery := fmt.Sprintf(`INSERT INTO activities (%s) VALUES (%s)`, strings.Join(layerCols, ","), layerPlaceholders)
	for _, layer := range layers {
		lv := layerValuesOf(layer)
		args := append([]any{entry.Filename, string(layer.Layer)}, lv.args()...)
		if _, err := tx.Exec(layerQuery, args...); err != nil {
			return fmt.Errorf("searchindex: inserting layer for %s: %w", entry.Filename, err)
		}
	}

	return tx.Commit()
}

// DeleteEntry removes filename's row from activities (redundant with the
// ON DELETE CASCADE, kept explicit per spec.md's "belt-and-braces" wording)
// then from entries.
func (d *DB) DeleteEntry(filename string) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM activities WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("searchindex: deleting layers for %s: %w", filename, err)
	}
	if _, err := tx.Exec(`DELETE FROM entries WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("searchindex: deleting entry %s: %w", filename, err)
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
