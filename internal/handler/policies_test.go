package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExemplarContentType(t *testing.T) {
	cases := []struct {
		filename string
		fileType string
		want     string
	}{
		{"msa-template.md", "", "text/plain"},
		{"notes.TXT", "", "text/plain"},
		{"sow.pdf", "", "application/pdf"},
		{"legacy.doc", "", "application/msword"},
		{"sow.docx", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"archive.bin", "", "application/octet-stream"},
		{"no-extension", "", "application/octet-stream"},
		{"anything.md", "text/markdown", "text/markdown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, exemplarContentType(tc.filename, tc.fileType), tc.filename)
	}
}
