package workspace

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
)

const utf8BOM = "\ufeff"

// decodeText returns data as a UTF-8 string. Bytes that do not sniff as
// text are rejected with ErrBinaryContent; other encodings are transcoded.
func decodeText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return "", project.ErrBinaryContent
	}
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), utf8BOM), nil
	}

	label := charsetParam(mtype.String())
	if label == "" || label == "utf-8" {
		label = detectCharset(data)
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
	return string(out), nil
}

// isText reports whether mtype is text/plain or one of its descendants
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func charsetParam(mediaType string) string {
	_, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "windows-1252"
	}
	return strings.ToLower(result.Charset)
}
