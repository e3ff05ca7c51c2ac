package generator

import (
	_ "embed"
	"encoding/json"
	"strings"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/session"
	"widgetgen/internal/util/jsonutil"
)

var (
	//go:embed prompts/mock_data.md
	mockDataPrompt string
	//go:embed prompts/widget_schema.md
	widgetSchemaPrompt string
	//go:embed prompts/widget_refine.md
	widgetRefinePrompt string
)

func buildMockDataPrompt(mode session.Mode, input string, app *session.AppMetadata) string {
	content := "App Description:\n" + input
	if mode == session.ModeAppID && app != nil {
		b, _ := jsonutil.MarshalNoEscapeIndent(app, "", "  ")
		content = "App Metadata:\n" + string(b)
	}
	return strings.NewReplacer(
		"{{MODE}}", string(mode),
		"{{INPUT_CONTENT}}", content,
	).Replace(mockDataPrompt)
}

func buildWidgetPrompt(mock MockData, stylePrompt string, catalog []string) string {
	b, _ := jsonutil.MarshalNoEscapeIndent(mock, "", "  ")
	return strings.NewReplacer(
		"{{MOCK_DATA_SCHEMA}}", string(b),
		"{{UI_STYLE_PROMPT}}", stylePrompt,
		"{{COMPONENTS}}", strings.Join(catalog, ", "),
		"{{ICONS}}", strings.Join(a2ui.IconNames(), ", "),
	).Replace(widgetSchemaPrompt)
}

func buildRefinePrompt(catalog []string) string {
	return strings.ReplaceAll(widgetRefinePrompt, "{{COMPONENTS}}", strings.Join(catalog, ", "))
}

func refineInput(previous *a2ui.Schema, instruction string) string {
	b, _ := json.MarshalIndent(previous, "", "  ")
	return string(b) + "\n\n" + instruction
}
