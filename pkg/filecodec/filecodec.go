// Package filecodec converts files between their raw bytes and the base64
// text used on the wire, where browsers send them as data URLs.
package filecodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MimePDF is the only document type accepted for articles and reviews.
const MimePDF = "application/pdf"

var (
	// ErrEmpty is returned when no file content was supplied.
	ErrEmpty = errors.New("file is empty")
	// ErrNotPDF is returned when the decoded bytes are not a PDF document.
	ErrNotPDF = errors.New("file is not a PDF document")
)

// Encode renders b as standard padded base64 without a data URL prefix.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode accepts plain base64 or a data URL ("data:application/pdf;base64,...").
func Decode(text string) ([]byte, error) {
	payload := stripDataURL(strings.TrimSpace(text))
	if payload == "" {
		return nil, ErrEmpty
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	enc := base64.StdEncoding
	if !strings.HasSuffix(payload, "=") && len(payload)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// DecodePDF decodes text and verifies the content is a PDF.
func DecodePDF(text string) ([]byte, error) {
	data, err := Decode(text)
	if err != nil {
		return nil, err
	}
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	return data, nil
}

// IsPDF sniffs the content type of data.
func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is(MimePDF)
}

func stripDataURL(s string) string {
	if !strings.HasPrefix(strings.ToLower(s), "data:") {
		return s
	}
	idx := strings.Index(s, ",")
	if idx < 0 {
		return ""
	}
	return s[idx+1:]
}
