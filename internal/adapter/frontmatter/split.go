package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a document opened a front-matter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter opened but closing delimiter is missing")

var delimiter = []byte("---")

// split separates the YAML header from the body. Ingestion never writes
// documents back, so the split is read-only: CRLF input is normalized to
// LF and no formatting details are retained.
func split(content []byte) (header, body []byte, had bool, err error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	open := append(append([]byte{}, delimiter...), '\n')
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty header block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := append([]byte{'\n'}, open...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	header = rest[:idx+1]
	body = rest[idx+len(closeSeq):]
	return header, body, true, nil
}

// parseHeader unmarshals raw YAML header bytes into a key map.
func parseHeader(header []byte) (map[string]any, error) {
	if len(header) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
