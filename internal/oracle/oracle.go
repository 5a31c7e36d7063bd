// Package oracle is the Extraction Oracle: it composes a multimodal prompt
// from a frame image, the Rules Store's preambles, recent Activity Store
// context, and an optional audio transcript, submits it to the configured
// model, and parses the response into a normalized AnalysisResult.
package oracle

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
)

const systemPrompt = `You are a screen activity extractor. Given a single screenshot, identify every distinct UI layer visible (the primary foreground application, plus any overlay such as a picture-in-picture video or a notification banner). For each layer, report its app category, a short activity phrase, a longer summary, and any structured metadata that applies (browser, video, ide, terminal, communication, document). Exactly one layer must be marked "layer": "primary". Respond with a single JSON object shaped {"activities": [...], "isContinuation": bool} and nothing else — no prose, no markdown fences.`

// RulesPreamble supplies the Rules Store's formatted indexing/exclude
// rule blocks, kept as an interface here so oracle does not import the
// rules package directly.
type RulesPreamble interface {
	FormatIndexingPreamble() string
}

// AudioCollaborator optionally supplies a transcript for the timestamp a
// frame was captured at (internal/audio.Collaborator satisfies this).
type AudioCollaborator interface {
	Transcript(ctx context.Context, timestampMs int64) (string, bool, error)
}

// Oracle extracts structured activity from screenshots.
type Oracle struct {
	Client llmtransport.Client
	Model  string
	Rules  RulesPreamble
	Audio  AudioCollaborator
}

// New constructs an Oracle. Rules and Audio may be nil (no preamble / no
// transcript lookup attempted).
func New(client llmtransport.Client, model string, rulesSource RulesPreamble, audio AudioCollaborator) *Oracle {
	return &Oracle{Client: client, Model: model, Rules: rulesSource, Audio: audio}
}

// RecentEntry is a minimal view of a past ActivityEntry used for prompt
// context, so oracle does not need the full domain type wired through
// every caller.
type RecentEntry struct {
	Date    string
	Time    string
	Summary string
}

// Extract runs the full extraction contract (spec.md §4.4) for one frame.
func (o *Oracle) Extract(ctx context.Context, frame domain.Frame, recent []RecentEntry) (domain.AnalysisResult, error) {
	imgData, err := os.ReadFile(frame.AbsolutePath)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrImageUnreadable, err)
	}

	userText := o.buildUserText(frame, recent)
	var audioText string
	if o.Audio != nil {
		if transcript, ok, aerr := o.Audio.Transcript(ctx, frame.Timestamp); aerr == nil && ok {
			audioText = "\n\nAUDIO TRANSCRIPT (use only as supporting context, the image is authoritative):\n" + transcript
		}
	}

	sys := systemPrompt
	if o.Rules != nil {
		if preamble := o.Rules.FormatIndexingPreamble(); preamble != "" {
			sys = sys + "\n\n" + preamble
		}
	}

	messages := []llmtransport.Message{
		llmtransport.Text(llmtransport.RoleSystem, sys),
		llmtransport.TextWithImage(llmtransport.RoleUser, userText+audioText, "image/jpeg", base64.StdEncoding.EncodeToString(imgData)),
	}

	resp, err := o.Client.Complete(ctx, llmtransport.CompletionRequest{
		Model:       o.Model,
		Messages:    messages,
		MaxTokens:   1500,
		Temperature: 0.2,
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	return ParseResponse(resp.Text)
}

func (o *Oracle) buildUserText(frame domain.Frame, recent []RecentEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Screenshot captured %s %s.\n", frame.Date, frame.Time)
	if len(recent) > 0 {
		b.WriteString("\nRecent activity, most recent last:\n")
		for _, r := range recent {
			fmt.Fprintf(&b, "- %s %s: %s\n", r.Date, r.Time, r.Summary)
		}
	}
	b.WriteString("\nReturn the JSON object described in the system prompt.")
	return b.String()
}

// wireActivity mirrors the oracle's wire-level activity shape; pointer
// fields let ParseResponse distinguish "absent" from "zero value" the way
// the legacy flat shape requires.
type wireActivity struct {
	Layer         string                `json:"layer"`
	App           *wireApp              `json:"app"`
	Browser       *domain.Browser       `json:"browser"`
	Video         *domain.Video         `json:"video"`
	IDE           *domain.IDE           `json:"ide"`
	Terminal      *domain.Terminal      `json:"terminal"`
	Communication *domain.Communication `json:"communication"`
	Document      *domain.Document      `json:"document"`
	Activity      string                `json:"activity"`
	Summary       string                `json:"summary"`
	Tags          []string              `json:"tags"`
}

type wireApp struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	WindowTitle  string `json:"windowTitle"`
	BundleOrPath string `json:"bundleOrPath"`
}

func (w wireActivity) toDomain() domain.Activity {
	layer := domain.Layer(w.Layer)
	if layer == "" {
		layer = domain.LayerPrimary
	}
	a := domain.Activity{
		Layer:         layer,
		Browser:       w.Browser,
		Video:         w.Video,
		IDE:           w.IDE,
		Terminal:      w.Terminal,
		Communication: w.Communication,
		Document:      w.Document,
		Activity:      w.Activity,
		Summary:       w.Summary,
		Tags:          w.Tags,
	}
	if w.App != nil {
		a.App = domain.App{
			Name:         w.App.Name,
			Category:     domain.AppCategory(w.App.Category),
			WindowTitle:  w.App.WindowTitle,
			BundleOrPath: w.App.BundleOrPath,
		}
	}
	return a
}

type wireMultiShape struct {
	Activities     []wireActivity `json:"activities"`
	IsContinuation bool           `json:"isContinuation"`
}
