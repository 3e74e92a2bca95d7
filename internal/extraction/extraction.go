package extraction

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"
)

// Result — итог извлечения текста из загруженного артефакта
type Result struct {
	ContentText string
	ContentHTML string
	Summary     string
}

type FileType string

const (
	FileTypeMarkdown FileType = "md"
	FileTypeDocx     FileType = "docx"
	FileTypeUnknown  FileType = "unknown"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	exportMetaRe = regexp.MustCompile(`(?m)^_Exported on[^\n]*\n`)
	cursorMetaRe = regexp.MustCompile(`(?i)from Cursor[^\n]*`)
	hrRe         = regexp.MustCompile(`(?m)^---+\s*$`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	wsRe         = regexp.MustCompile(`\s+`)
	paraCloseRe  = regexp.MustCompile(`</w:p>`)
	headingRe    = regexp.MustCompile(`^#+\s`)
)

// DetectFileType определяет тип файла по имени или content-type
func DetectFileType(filename, contentType string) FileType {
	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}
	if ext == "md" || ext == "markdown" || contentType == "text/markdown" {
		return FileTypeMarkdown
	}
	if ext == "docx" ||
		contentType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		return FileTypeDocx
	}
	return FileTypeUnknown
}

// Extract разбирает содержимое файла по его типу
func Extract(data []byte, filename, contentType string) (Result, error) {
	switch DetectFileType(filename, contentType) {
	case FileTypeMarkdown:
		return ExtractMarkdown(data)
	case FileTypeDocx:
		return ExtractDocx(data)
	}
	return Result{}, fmt.Errorf(
		"unsupported file type: %s. Only .md and .docx files are supported", filename)
}

func ExtractMarkdown(data []byte) (Result, error) {
	cleaned := CleanMetadata(string(data))

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(cleaned), &buf); err != nil {
		return Result{}, fmt.Errorf("convert markdown: %w", err)
	}

	return Result{
		ContentText: cleaned,
		ContentHTML: buf.String(),
		Summary:     Summarize(cleaned, 200),
	}, nil
}

func ExtractDocx(data []byte) (Result, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("read docx: %w", err)
	}
	defer reader.Close()

	// GetContent отдаёт WordprocessingML; концы абзацев превращаем в переводы строк
	raw := reader.Editable().GetContent()
	withBreaks := paraCloseRe.ReplaceAllString(raw, "\n")
	text := html.UnescapeString(tagRe.ReplaceAllString(withBreaks, ""))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(wsRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	cleaned := CleanMetadata(strings.Join(lines, "\n"))

	var htmlBuf strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		htmlBuf.WriteString("<p>")
		htmlBuf.WriteString(html.EscapeString(line))
		htmlBuf.WriteString("</p>")
	}

	return Result{
		ContentText: cleaned,
		ContentHTML: htmlBuf.String(),
		Summary:     Summarize(cleaned, 200),
	}, nil
}

// PlainText убирает HTML-разметку и нормализует пробелы
func PlainText(htmlContent string) string {
	text := tagRe.ReplaceAllString(htmlContent, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}

func CleanMetadata(text string) string {
	text = exportMetaRe.ReplaceAllString(text, "")
	text = cursorMetaRe.ReplaceAllString(text, "")
	text = hrRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Summarize выбирает первый содержательный абзац, обрезая по границе предложения
func Summarize(content string, maxLength int) string {
	paragraphs := regexp.MustCompile(`\n\n+`).Split(content, -1)
	for _, p := range paragraphs {
		cleaned := strings.TrimSpace(p)
		if len(cleaned) <= 50 || headingRe.MatchString(cleaned) {
			continue
		}
		if len(cleaned) <= maxLength {
			return cleaned
		}
		truncated := cleaned[:maxLength]
		if lastPeriod := strings.LastIndex(truncated, "."); lastPeriod > maxLength*7/10 {
			return truncated[:lastPeriod+1]
		}
		return truncated + "..."
	}

	cleaned := strings.TrimSpace(content)
	if len(cleaned) <= maxLength {
		return cleaned
	}
	return cleaned[:maxLength] + "..."
}
