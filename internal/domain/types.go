// Package domain holds the data types shared across the indexing core:
// frames, activity entries, rules, and profile records. Nothing here owns
// I/O — each store package is responsible for persisting its own slice of
// this model.
package domain

import "time"

// Layer identifies which UI layer an Activity describes.
type Layer string

const (
	LayerPrimary Layer = "primary"
	LayerOverlay Layer = "overlay"
)

// AppCategory is the fixed enum of application categories the extractor
// may assign to an Activity's App descriptor.
type AppCategory string

const (
	CategoryBrowser       AppCategory = "browser"
	CategoryIDE           AppCategory = "ide"
	CategoryTerminal      AppCategory = "terminal"
	CategoryMedia         AppCategory = "media"
	CategoryCommunication AppCategory = "communication"
	CategoryProductivity  AppCategory = "productivity"
	CategoryDesign        AppCategory = "design"
	CategorySystem        AppCategory = "system"
	CategoryOther         AppCategory = "other"
)

// App describes the application a layer belongs to.
type App struct {
	Name           string      `json:"name"`
	Category       AppCategory `json:"category"`
	WindowTitle    string      `json:"windowTitle,omitempty"`
	BundleOrPath   string      `json:"bundleOrPath,omitempty"`
}

// Browser holds browser-specific metadata for a layer.
type Browser struct {
	URL      string `json:"url,omitempty"`
	Domain   string `json:"domain,omitempty"`
	PageTitle string `json:"pageTitle,omitempty"`
	PageType string `json:"pageType,omitempty"`
}

// Video holds media-player metadata for a layer.
type Video struct {
	Platform string `json:"platform,omitempty"`
	Title    string `json:"title,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Duration string `json:"duration,omitempty"`
	Position string `json:"position,omitempty"`
	State    string `json:"state,omitempty"`
}

// IDE holds IDE/editor metadata for a layer.
type IDE struct {
	IDE         string `json:"ide,omitempty"`
	CurrentFile string `json:"currentFile,omitempty"`
	FilePath    string `json:"filePath,omitempty"`
	Language    string `json:"language,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	GitBranch   string `json:"gitBranch,omitempty"`
}

// Terminal holds shell metadata for a layer.
type Terminal struct {
	CWD         string `json:"cwd,omitempty"`
	LastCommand string `json:"lastCommand,omitempty"`
	Shell       string `json:"shell,omitempty"`
	SSHHost     string `json:"sshHost,omitempty"`
}

// Communication holds chat/call metadata for a layer.
type Communication struct {
	App       string `json:"app,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Document holds document-editor metadata for a layer.
type Document struct {
	App           string `json:"app,omitempty"`
	DocumentTitle string `json:"documentTitle,omitempty"`
	DocumentType  string `json:"documentType,omitempty"`
}

// Activity is one UI layer visible in a frame (I2: exactly one primary
// layer per entry).
type Activity struct {
	Layer         Layer          `json:"layer"`
	App           App            `json:"app"`
	Browser       *Browser       `json:"browser,omitempty"`
	Video         *Video         `json:"video,omitempty"`
	IDE           *IDE           `json:"ide,omitempty"`
	Terminal      *Terminal      `json:"terminal,omitempty"`
	Communication *Communication `json:"communication,omitempty"`
	Document      *Document      `json:"document,omitempty"`
	Activity      string         `json:"activity"`
	Summary       string         `json:"summary"`
	Tags          []string       `json:"tags,omitempty"`
}

// ActivityEntry is the durable per-screenshot record (spec.md §3). The
// flattened convenience fields mirror the primary layer (I3) and must never
// be set independently of it — see SyncFlatFields.
type ActivityEntry struct {
	Filename  string `json:"filename"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	Time      string `json:"time"`

	Activities []Activity `json:"activities"`

	// Flattened convenience fields, mirrored from the primary layer.
	App           string   `json:"app"`
	Browser       string   `json:"browser,omitempty"`
	Video         string   `json:"video,omitempty"`
	IDE           string   `json:"ide,omitempty"`
	Terminal      string   `json:"terminal,omitempty"`
	Communication string   `json:"communication,omitempty"`
	Document      string   `json:"document,omitempty"`
	Activity      string   `json:"activity"`
	Summary       string   `json:"summary"`
	Tags          []string `json:"tags,omitempty"`

	IsContinuation bool `json:"isContinuation"`

	AudioRecordingID   string `json:"audioRecordingId,omitempty"`
	AudioTranscription string `json:"audioTranscription,omitempty"`
}

// PrimaryLayer returns the first layer tagged primary, falling back to the
// first layer if none is explicitly tagged (mirrors the Extraction Oracle's
// normalizer, spec.md §4.4 step 5).
func (e *ActivityEntry) PrimaryLayer() *Activity {
	if len(e.Activities) == 0 {
		return nil
	}
	for i := range e.Activities {
		if e.Activities[i].Layer == LayerPrimary {
			return &e.Activities[i]
		}
	}
	return &e.Activities[0]
}

// SyncFlatFields recomputes the flattened convenience fields from the
// primary layer, enforcing I3. Callers must invoke this any time
// Activities is mutated.
func (e *ActivityEntry) SyncFlatFields() {
	primary := e.PrimaryLayer()
	if primary == nil {
		return
	}
	e.App = primary.App.Name
	e.Activity = primary.Activity
	e.Summary = primary.Summary
	e.Tags = primary.Tags
	if primary.Browser != nil {
		e.Browser = primary.Browser.URL
	} else {
		e.Browser = ""
	}
	if primary.Video != nil {
		e.Video = primary.Video.Title
	} else {
		e.Video = ""
	}
	if primary.IDE != nil {
		e.IDE = primary.IDE.CurrentFile
	} else {
		e.IDE = ""
	}
	if primary.Terminal != nil {
		e.Terminal = primary.Terminal.LastCommand
	} else {
		e.Terminal = ""
	}
	if primary.Communication != nil {
		e.Communication = primary.Communication.Channel
	} else {
		e.Communication = ""
	}
	if primary.Document != nil {
		e.Document = primary.Document.DocumentTitle
	} else {
		e.Document = ""
	}
}

// Validate enforces I2: activities non-empty, exactly one primary layer.
func (e *ActivityEntry) Validate() error {
	if len(e.Activities) == 0 {
		return errEmptyActivities
	}
	count := 0
	for _, a := range e.Activities {
		if a.Layer == LayerPrimary {
			count++
		}
	}
	if count != 1 {
		return errPrimaryLayerCount
	}
	return nil
}

// Frame is a single raw screenshot with a parseable timestamp.
type Frame struct {
	Filename     string
	Timestamp    int64
	Date         string
	Time         string
	AbsolutePath string
}

// AnalysisResult is the typed, normalized output of the Extraction Oracle.
type AnalysisResult struct {
	Activities     []Activity `json:"activities"`
	IsContinuation bool       `json:"isContinuation"`
}

// RuleCategory is one of the three Rules Store buckets.
type RuleCategory string

const (
	RuleCategoryIndexing RuleCategory = "indexing"
	RuleCategoryExclude  RuleCategory = "exclude"
	RuleCategorySearch   RuleCategory = "search"
)

// RuleAction describes what a RuleChange did to its category's list.
type RuleAction string

const (
	RuleActionAdd    RuleAction = "add"
	RuleActionRemove RuleAction = "remove"
	RuleActionModify RuleAction = "modify"
)

// LearnedRules is the Rules Store's persisted state (spec.md §3).
type LearnedRules struct {
	Indexing    []string  `json:"indexing"`
	Exclude     []string  `json:"exclude"`
	Search      []string  `json:"search"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// RuleChange is one append-only history entry.
type RuleChange struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	Feedback      string       `json:"feedback"`
	Action        RuleAction   `json:"action"`
	Category      RuleCategory `json:"category"`
	Rule          string       `json:"rule"`
	PreviousRule  string       `json:"previousRule,omitempty"`
	RuleIndex     *int         `json:"ruleIndex,omitempty"`
}

// ProfileHistoryEntry is one edit in the Profile Manager's versioned log.
type ProfileHistoryEntry struct {
	Timestamp          time.Time      `json:"timestamp"`
	Summary            string         `json:"summary"`
	PreviousContent    string         `json:"previousContent"`
	NewContent         string         `json:"newContent"`
	ActivitiesAnalyzed int            `json:"activitiesAnalyzed"`
	ActivityRange      ProfileRange   `json:"activityRange"`
}

// ProfileRange bounds the entries a profile update summarized.
type ProfileRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
