package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
	"screenlog/internal/reanalyzer"
	"screenlog/internal/rules"
)

func (f *Facade) toolDefinitions() []llmtransport.ToolDefinition {
	return []llmtransport.ToolDefinition{
		{
			Name:        "search_fulltext",
			Description: "Activity-level weighted full-text search over everything indexed.",
			Parameters: llmtransport.ParamSchema{
				Type: "object",
				Properties: map[string]llmtransport.Property{
					"query": {Type: "string", Description: "free-text search query"},
					"limit": {Type: "integer", Description: "max results, default 10"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "search_by_date",
			Description: "All entries on one calendar date.",
			Parameters: llmtransport.ParamSchema{
				Type:       "object",
				Properties: map[string]llmtransport.Property{"date": {Type: "string", Description: "YYYY-MM-DD"}},
				Required:   []string{"date"},
			},
		},
		{
			Name:        "search_by_date_range",
			Description: "All entries between two dates, inclusive.",
			Parameters: llmtransport.ParamSchema{
				Type: "object",
				Properties: map[string]llmtransport.Property{
					"startDate": {Type: "string", Description: "YYYY-MM-DD"},
					"endDate":   {Type: "string", Description: "YYYY-MM-DD"},
				},
				Required: []string{"startDate", "endDate"},
			},
		},
		{
			Name:        "search_by_app",
			Description: "All entries whose primary app matches a name.",
			Parameters: llmtransport.ParamSchema{
				Type:       "object",
				Properties: map[string]llmtransport.Property{"app": {Type: "string"}},
				Required:   []string{"app"},
			},
		},
		{
			Name:        "search_combined",
			Description: "Filtered search combining an optional date range, keywords, and app name.",
			Parameters: llmtransport.ParamSchema{
				Type: "object",
				Properties: map[string]llmtransport.Property{
					"startDate": {Type: "string", Description: "YYYY-MM-DD, optional"},
					"endDate":   {Type: "string", Description: "YYYY-MM-DD, optional"},
					"keywords":  {Type: "string", Description: "free-text terms, optional"},
					"app":       {Type: "string", Description: "app name filter, optional"},
				},
			},
		},
		{
			Name:        "list_apps",
			Description: "Enumerate every distinct app name seen in the index.",
			Parameters:  llmtransport.ParamSchema{Type: "object"},
		},
		{
			Name:        "list_dates",
			Description: "Enumerate every distinct date with indexed activity.",
			Parameters:  llmtransport.ParamSchema{Type: "object"},
		},
		{
			Name:        "get_index_stats",
			Description: "Entry counts, processing cursor, and index size.",
			Parameters:  llmtransport.ParamSchema{Type: "object"},
		},
		{
			Name:        "update_rules",
			Description: "Submit natural-language feedback that becomes a Rules Store change.",
			Parameters: llmtransport.ParamSchema{
				Type:       "object",
				Properties: map[string]llmtransport.Property{"feedback": {Type: "string"}},
				Required:   []string{"feedback"},
			},
		},
		{
			Name:        "show_rules",
			Description: "Render the current indexing, exclude, and search rules.",
			Parameters:  llmtransport.ParamSchema{Type: "object"},
		},
		{
			Name:        "undo_rule_change",
			Description: "Pop and invert the most recent rule change.",
			Parameters:  llmtransport.ParamSchema{Type: "object"},
		},
		{
			Name:        "reanalyze_entries",
			Description: "Re-run extraction against a filtered slice of stored entries.",
			Parameters: llmtransport.ParamSchema{
				Type: "object",
				Properties: map[string]llmtransport.Property{
					"all":       {Type: "boolean", Description: "reanalyze everything"},
					"date":      {Type: "string", Description: "YYYY-MM-DD"},
					"startDate": {Type: "string"},
					"endDate":   {Type: "string"},
					"filenames": {Type: "string", Description: "comma-separated filenames"},
				},
			},
		},
		{
			Name:        "get_screenshot_path",
			Description: "Resolve a stored filename to its absolute path on disk.",
			Parameters: llmtransport.ParamSchema{
				Type:       "object",
				Properties: map[string]llmtransport.Property{"filename": {Type: "string"}},
				Required:   []string{"filename"},
			},
		},
	}
}

// dispatch repairs and parses call.Arguments, runs the named tool, and
// always returns a result string — tool failures become tool-result text
// fed back to the model rather than aborting the conversation (spec.md
// §7's "Chat tool failures become tool-result messages, not exceptions").
func (f *Facade) dispatch(ctx context.Context, call llmtransport.ToolCall) string {
	args, err := repairArgs(call.Arguments)
	if err != nil {
		return fmt.Sprintf("error: could not parse arguments: %v", err)
	}

	var result string
	var toolErr error
	switch call.Name {
	case "search_fulltext":
		result, toolErr = f.toolSearchFulltext(args)
	case "search_by_date":
		result, toolErr = f.toolSearchByDate(args)
	case "search_by_date_range":
		result, toolErr = f.toolSearchByDateRange(args)
	case "search_by_app":
		result, toolErr = f.toolSearchByApp(args)
	case "search_combined":
		result, toolErr = f.toolSearchCombined(args)
	case "list_apps":
		result, toolErr = f.toolListApps()
	case "list_dates":
		result, toolErr = f.toolListDates()
	case "get_index_stats":
		result, toolErr = f.toolIndexStats()
	case "update_rules":
		result, toolErr = f.toolUpdateRules(ctx, args)
	case "show_rules":
		result, toolErr = f.toolShowRules()
	case "undo_rule_change":
		result, toolErr = f.toolUndoRuleChange()
	case "reanalyze_entries":
		result, toolErr = f.toolReanalyzeEntries(ctx, args)
	case "get_screenshot_path":
		result, toolErr = f.toolGetScreenshotPath(args)
	default:
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}

	if toolErr != nil {
		f.Log.Warn().Err(toolErr).Str("tool", call.Name).Msg("chat tool call failed")
		return fmt.Sprintf("error: %v", toolErr)
	}
	return result
}

func repairArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, err
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, err
	}
	return args, nil
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func (f *Facade) toolSearchFulltext(args map[string]any) (string, error) {
	query := argString(args, "query")
	limit := argInt(args, "limit", 10)

	if cached, ok := f.searchCache.Get(query); ok {
		return formatEntries(cached), nil
	}
	hits, err := f.Index.SearchActivitiesWeighted(query, limit)
	if err != nil {
		return "", err
	}
	var entries []domain.ActivityEntry
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !seen[h.Entry.Filename] {
			seen[h.Entry.Filename] = true
			entries = append(entries, h.Entry)
		}
	}
	f.searchCache.Add(query, entries)
	return formatEntries(entries), nil
}

func (f *Facade) toolSearchByDate(args map[string]any) (string, error) {
	entries, err := f.Index.GetByDate(argString(args, "date"))
	if err != nil {
		return "", err
	}
	return formatEntries(entries), nil
}

func (f *Facade) toolSearchByDateRange(args map[string]any) (string, error) {
	entries, err := f.Index.GetByDateRange(argString(args, "startDate"), argString(args, "endDate"))
	if err != nil {
		return "", err
	}
	return formatEntries(entries), nil
}

func (f *Facade) toolSearchByApp(args map[string]any) (string, error) {
	entries, err := f.Index.GetByApp(argString(args, "app"))
	if err != nil {
		return "", err
	}
	return formatEntries(entries), nil
}

func (f *Facade) toolSearchCombined(args map[string]any) (string, error) {
	startDate := argString(args, "startDate")
	endDate := argString(args, "endDate")
	keywords := argString(args, "keywords")
	app := argString(args, "app")

	var entries []domain.ActivityEntry
	var err error
	switch {
	case keywords != "":
		entries, err = f.Index.SearchWeighted(keywords, 50)
	case startDate != "" || endDate != "":
		entries, err = f.Index.GetByDateRange(startDate, endDate)
	case app != "":
		entries, err = f.Index.GetByApp(app)
	default:
		return "no filters given", nil
	}
	if err != nil {
		return "", err
	}

	var filtered []domain.ActivityEntry
	for _, e := range entries {
		if startDate != "" && e.Date < startDate {
			continue
		}
		if endDate != "" && e.Date > endDate {
			continue
		}
		if app != "" && !strings.EqualFold(e.App, app) {
			continue
		}
		filtered = append(filtered, e)
	}
	return formatEntries(filtered), nil
}

func (f *Facade) toolListApps() (string, error) {
	apps, err := f.Index.ListApps()
	if err != nil {
		return "", err
	}
	if len(apps) == 0 {
		return "no apps indexed yet", nil
	}
	return strings.Join(apps, ", "), nil
}

func (f *Facade) toolListDates() (string, error) {
	dates := f.Entries.ListDates()
	if len(dates) == 0 {
		return "no dates indexed yet", nil
	}
	return strings.Join(dates, ", "), nil
}

func (f *Facade) toolIndexStats() (string, error) {
	count, err := f.Index.Count()
	if err != nil {
		return "", err
	}
	cursor := f.Entries.Cursor()
	cursorText := "none"
	if cursor != nil {
		cursorText = fmt.Sprintf("%d", *cursor)
	}
	return fmt.Sprintf("indexed entries: %d, activity store entries: %d, cursor: %s", count, f.Entries.Len(), cursorText), nil
}

func (f *Facade) toolUpdateRules(ctx context.Context, args map[string]any) (string, error) {
	feedback := argString(args, "feedback")
	if feedback == "" {
		return "", fmt.Errorf("feedback is required")
	}
	decision, err := f.Interpreter.Interpret(ctx, f.Rules.Load(), feedback)
	if err != nil {
		return "", err
	}
	id, err := rules.Apply(f.Rules, decision, feedback)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("applied %s to %s rules (change %s): %s", decision.Action, decision.Category, id, decision.Rule), nil
}

func (f *Facade) toolShowRules() (string, error) {
	r := f.Rules.Load()
	var b strings.Builder
	fmt.Fprintf(&b, "indexing: %s\n", strings.Join(r.Indexing, "; "))
	fmt.Fprintf(&b, "exclude: %s\n", strings.Join(r.Exclude, "; "))
	fmt.Fprintf(&b, "search: %s", strings.Join(r.Search, "; "))
	return b.String(), nil
}

func (f *Facade) toolUndoRuleChange() (string, error) {
	res, err := f.Rules.UndoLast()
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (f *Facade) toolReanalyzeEntries(ctx context.Context, args map[string]any) (string, error) {
	filter := reanalyzer.Filter{
		All:       argBool(args, "all"),
		Date:      argString(args, "date"),
		DateStart: argString(args, "startDate"),
		DateEnd:   argString(args, "endDate"),
	}
	if raw := argString(args, "filenames"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				filter.Filenames = append(filter.Filenames, trimmed)
			}
		}
	}

	res, err := f.Reanalyzer.Reanalyze(ctx, filter, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reanalyzed %d of %d (skipped %d, failed %d)", res.Reanalyzed, res.Total, res.Skipped, res.Failed), nil
}

func (f *Facade) toolGetScreenshotPath(args map[string]any) (string, error) {
	filename := argString(args, "filename")
	path := f.absoluteFramePath(filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no frame on disk for %q", filename)
	}
	return path, nil
}

func formatEntries(entries []domain.ActivityEntry) string {
	if len(entries) == 0 {
		return "no matching entries"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s | %s | %s: %s\n", e.Date, e.Time, e.App, e.Activity, e.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}
