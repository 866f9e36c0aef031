package filebox_test

import (
	"strings"
	"testing"

	"github.com/sagarc03/filebox"
	"github.com/stretchr/testify/assert"
)

func TestIsValidFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "simple", input: "report.pdf", valid: true},
		{name: "no extension", input: "Makefile", valid: true},
		{name: "dotfile", input: ".env", valid: true},
		{name: "inner spaces", input: "my file (1).txt", valid: true},
		{name: "unicode", input: "résumé-日本.txt", valid: true},
		{name: "max length", input: strings.Repeat("a", filebox.MaxFilenameLength), valid: true},
		{name: "empty", input: "", valid: false},
		{name: "dot", input: ".", valid: false},
		{name: "dot dot", input: "..", valid: false},
		{name: "too long", input: strings.Repeat("a", filebox.MaxFilenameLength+1), valid: false},
		{name: "forward slash", input: "dir/file.txt", valid: false},
		{name: "traversal", input: "../etc/passwd", valid: false},
		{name: "backslash", input: `dir\file.txt`, valid: false},
		{name: "nul byte", input: "file\x00.txt", valid: false},
		{name: "newline", input: "file\n.txt", valid: false},
		{name: "del", input: "file\x7f", valid: false},
		{name: "invalid utf8", input: "file\xff.txt", valid: false},
		{name: "leading space", input: " file.txt", valid: false},
		{name: "trailing space", input: "file.txt ", valid: false},
		{name: "server temp name", input: ".filebox-tmp-abc", valid: false},
		{name: "client partial name", input: ".filebox-x.part", valid: false},
		{name: "reserved prefix elsewhere", input: "a.filebox-b", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, filebox.IsValidFilename(tt.input))
		})
	}
}
