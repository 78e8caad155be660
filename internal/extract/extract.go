// Package extract turns uploaded resume and job description files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("no text could be extracted")
	ErrTooLarge          = errors.New("file exceeds size limit")
)

// MaxFileSize is the largest upload accepted per file.
const MaxFileSize = 10 << 20

// SupportedExtensions lists accepted file extensions, lower-cased with the dot.
var SupportedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// Supported reports whether filename has an accepted extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Text reads r fully and extracts its text according to the extension of filename.
func Text(filename string, r io.Reader) (string, error) {
	if !Supported(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, filename)
	}
	return Bytes(filename, data)
}

// Bytes extracts text from an in-memory file.
func Bytes(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = pdfText(data)
	case ".docx":
		text, _, err = docconv.ConvertDocx(bytes.NewReader(data))
	case ".doc":
		text, _, err = docconv.ConvertDoc(bytes.NewReader(data))
	case ".txt":
		if !utf8.Valid(data) {
			err = errors.New("text file is not valid UTF-8")
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filename, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
