// Package mimebody reconstructs the textual body of a MIME message.
package mimebody

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	// Registers charset decoders so non UTF-8 text parts are converted on read.
	_ "github.com/emersion/go-message/charset"
)

// ErrUndecodable is returned when a text part cannot be decoded to UTF-8.
var ErrUndecodable = errors.New("undecodable text part")

// defaultMediaType applies when a part carries no Content-Type (RFC 2045 5.2).
const defaultMediaType = "text/plain"

// Flatten concatenates the text parts of e, joined by newlines.
//
// Text parts are collected at the top level and one level inside a top-level
// multipart part. Deeper parts are not traversed, so a multipart/alternative
// nested in a multipart/mixed body contributes nothing.
func Flatten(e *message.Entity) (string, error) {
	var parts []string
	if err := collect(e, 0, &parts); err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

func collect(e *message.Entity, depth int, parts *[]string) error {
	mediaType := MediaType(e)

	switch {
	case strings.Contains(mediaType, "text"):
		text, err := decode(e)
		if err != nil {
			return err
		}
		*parts = append(*parts, text)
	case strings.Contains(mediaType, "multipart") && depth == 0:
		mr := e.MultipartReader()
		if mr == nil {
			return nil
		}
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if part == nil {
				return fmt.Errorf("reading multipart: %w", err)
			}
			if err != nil {
				// go-message returns the part alongside unknown charset or
				// transfer encoding errors.
				if strings.Contains(MediaType(part), "text") {
					return fmt.Errorf("%w: %w", ErrUndecodable, err)
				}
				continue
			}
			if err := collect(part, depth+1, parts); err != nil {
				return err
			}
		}
	}
	return nil
}

// MediaType returns the lower-cased media type of e, defaulting to text/plain.
func MediaType(e *message.Entity) string {
	mediaType, _, _ := e.Header.ContentType()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return defaultMediaType
	}
	return mediaType
}

func decode(e *message.Entity) (string, error) {
	b, err := io.ReadAll(e.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrUndecodable)
	}
	return string(b), nil
}
