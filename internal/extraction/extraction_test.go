package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	assert.Equal(t, FileTypeMarkdown, DetectFileType("notes.md", ""))
	assert.Equal(t, FileTypeMarkdown, DetectFileType("NOTES.MD", ""))
	assert.Equal(t, FileTypeMarkdown, DetectFileType("plain", "text/markdown"))
	assert.Equal(t, FileTypeDocx, DetectFileType("contract.docx", ""))
	assert.Equal(t, FileTypeDocx, DetectFileType("blob",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, FileTypeUnknown, DetectFileType("image.png", "image/png"))
}

func TestExtractRejectsUnknownType(t *testing.T) {
	_, err := Extract([]byte("data"), "image.png", "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only .md and .docx")
}

func TestExtractMarkdown(t *testing.T) {
	src := "# Title\n\nThis paragraph describes the project goals in enough detail to summarize.\n\n- item one\n- item two\n"

	result, err := ExtractMarkdown([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, result.ContentHTML, "<h1>Title</h1>")
	assert.Contains(t, result.ContentHTML, "<li>item one</li>")
	assert.Contains(t, result.ContentText, "This paragraph describes")
	assert.Equal(t, "This paragraph describes the project goals in enough detail to summarize.", result.Summary)
}

func TestCleanMetadataStripsExportNoise(t *testing.T) {
	src := "_Exported on 2026-01-01_\nGenerated from Cursor session\n---\n\n\n\nReal content here."
	cleaned := CleanMetadata(src)

	assert.NotContains(t, cleaned, "_Exported")
	assert.NotContains(t, cleaned, "Cursor")
	assert.NotContains(t, cleaned, "---")
	assert.Contains(t, cleaned, "Real content here.")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Net 30 terms", PlainText("<p>Net 30\n  <b>terms</b></p>"))
	assert.Equal(t, "", PlainText("<p></p>"))
}

func TestSummarizeSkipsHeadingsAndShortParagraphs(t *testing.T) {
	content := "# Heading\n\nshort\n\nThe first substantial paragraph carries the actual meaning of the document."
	got := Summarize(content, 200)
	assert.Equal(t, "The first substantial paragraph carries the actual meaning of the document.", got)
}

func TestSummarizeTruncatesAtSentenceBoundary(t *testing.T) {
	first := strings.Repeat("word ", 30) + "ends here." // ~160 символов
	content := first + " " + strings.Repeat("tail ", 30)
	got := Summarize(content, 200)

	assert.True(t, strings.HasSuffix(got, "."), "expected sentence boundary, got %q", got)
	assert.LessOrEqual(t, len(got), 200)
}
