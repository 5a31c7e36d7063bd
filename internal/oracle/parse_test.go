package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/domain"
)

func TestParseResponseMultiActivityShape(t *testing.T) {
	raw := `{"activities":[{"layer":"primary","app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"writing go","ide":{"currentFile":"main.go"}},{"layer":"overlay","app":{"name":"zoom","category":"communication"},"activity":"call","summary":"standup meeting"}],"isContinuation":false}`

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, result.Activities, 2)
	assert.Equal(t, domain.LayerPrimary, result.Activities[0].Layer)
	assert.Equal(t, "main.go", result.Activities[0].IDE.CurrentFile)
	assert.Equal(t, domain.LayerOverlay, result.Activities[1].Layer)
	assert.False(t, result.IsContinuation)
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"activities\":[{\"layer\":\"primary\",\"app\":{\"name\":\"chrome\",\"category\":\"browser\"},\"activity\":\"browsing\",\"summary\":\"reading docs\"}]}\n```"

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	assert.Equal(t, "chrome", result.Activities[0].App.Name)
}

func TestParseResponseLegacyFlatShape(t *testing.T) {
	raw := `{"app":{"name":"iterm2","category":"terminal"},"activity":"running tests","summary":"go test ./...","terminal":{"lastCommand":"go test ./..."}}`

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	assert.Equal(t, domain.LayerPrimary, result.Activities[0].Layer)
	assert.Equal(t, "iterm2", result.Activities[0].App.Name)
}

func TestParseResponseDefaultsMissingLayerToPrimary(t *testing.T) {
	raw := `{"activities":[{"app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"writing go"}]}`

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.LayerPrimary, result.Activities[0].Layer)
}

func TestParseResponseNoExplicitPrimaryPromotesFirst(t *testing.T) {
	raw := `{"activities":[{"layer":"overlay","app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"writing go"},{"layer":"overlay","app":{"name":"zoom","category":"communication"},"activity":"call","summary":"meeting"}]}`

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.LayerPrimary, result.Activities[0].Layer)
	assert.Equal(t, domain.LayerOverlay, result.Activities[1].Layer)
}

func TestParseResponseEmptyActivitiesErrors(t *testing.T) {
	_, err := ParseResponse(`{"activities":[],"isContinuation":false}`)
	assert.ErrorIs(t, err, domain.ErrExtractionEmpty)
}

func TestParseResponseMalformedErrors(t *testing.T) {
	_, err := ParseResponse(`not json at all {{{`)
	assert.ErrorIs(t, err, domain.ErrExtractionMalformed)
}

func TestParseResponseEmptyStringErrors(t *testing.T) {
	_, err := ParseResponse("   ")
	assert.ErrorIs(t, err, domain.ErrExtractionMalformed)
}

func TestParseResponseRepairsTrailingComma(t *testing.T) {
	raw := `{"activities":[{"layer":"primary","app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"writing go",}],}`

	result, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
}
