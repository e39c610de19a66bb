package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var anyWhitespace = regexp.MustCompile(`\s+`)

// Docx extracts paragraph text from a .docx file: runs are joined per
// paragraph (tables included), whitespace collapsed, empty paragraphs
// dropped, and paragraphs joined with "\n".
func Docx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		defer rc.Close()

		paragraphs, err := readParagraphs(rc)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return strings.Join(paragraphs, "\n"), nil
	}
	return "", fmt.Errorf("%w: word/document.xml not found", ErrInvalidDocument)
}

// readParagraphs streams document.xml, collecting the text of every w:p.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if inPara == 0 {
					current.Reset()
				}
				inPara++
			case "t":
				inText = true
			case "tab", "br", "cr":
				if inPara > 0 {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inPara--
				if inPara == 0 {
					text := strings.TrimSpace(anyWhitespace.ReplaceAllString(current.String(), " "))
					if text != "" {
						paragraphs = append(paragraphs, text)
					}
				}
			}
		case xml.CharData:
			if inText && inPara > 0 {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
