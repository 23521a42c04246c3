package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferLanguage(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"index.js", "javascript"},
		{"App.jsx", "javascript"},
		{"main.ts", "typescript"},
		{"View.TSX", "typescript"},
		{"script.py", "python"},
		{"Main.java", "java"},
		{"Program.cs", "csharp"},
		{"index.php", "php"},
		{"index.html", "html"},
		{"site.css", "css"},
		{"package.json", "json"},
		{"pom.xml", "xml"},
		{"README.md", "markdown"},
		{"ci.yaml", "yaml"},
		{"ci.yml", "yaml"},
		{"notes.txt", PlainText},
		{"Makefile", PlainText},
		{"archive.tar.gz", PlainText},
		{"trailing.", PlainText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferLanguage(tt.name))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "js", Extension("a.js"))
	assert.Equal(t, "gz", Extension("a.tar.gz"))
	assert.Equal(t, "", Extension("Makefile"))
	assert.Equal(t, "env", Extension(".env"))
}
