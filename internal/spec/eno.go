package spec

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// ParseError reports a malformed line in a spec file.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// DecodeEno parses the subset of the Eno notation used by trackerdb specs:
//
//	> comment
//	name: Acme Analytics
//	organization: acme
//
//	-- domains
//	acme.com
//	track.acme.com
//	-- domains
//
//	filters:
//	- ||acme.com^
//
// Multi-line blocks and lists are stored newline-joined. Any other line is
// an error.
func DecodeEno(path string, data []byte) (map[string]string, error) {
	fields := make(map[string]string)

	var (
		blockKey   string // non-empty while inside a -- block
		blockDelim string
		blockLines []string
		listKey    string // key of the most recent empty "key:" field
		listItems  []string
	)

	set := func(line int, key, value string) error {
		if _, dup := fields[key]; dup {
			return &ParseError{Path: path, Line: line, Msg: fmt.Sprintf("duplicate field %q", key)}
		}
		fields[key] = value
		return nil
	}

	flushList := func() {
		if listKey != "" && len(listItems) > 0 {
			fields[listKey] = strings.Join(listItems, "\n")
		}
		listKey, listItems = "", nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		raw := strings.TrimRight(scanner.Text(), "\r")

		if blockKey != "" {
			if strings.TrimSpace(raw) == blockDelim {
				fields[blockKey] = strings.Join(blockLines, "\n")
				blockKey, blockDelim, blockLines = "", "", nil
				continue
			}
			blockLines = append(blockLines, raw)
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, ">"):
			continue

		case strings.HasPrefix(line, "--"):
			flushList()
			dashes := len(line) - len(strings.TrimLeft(line, "-"))
			key := strings.TrimSpace(line[dashes:])
			if key == "" {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: "multi-line field without a key"}
			}
			if _, dup := fields[key]; dup {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("duplicate field %q", key)}
			}
			blockKey, blockDelim = key, line
			blockLines = nil

		case strings.HasPrefix(line, "-"):
			if listKey == "" {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: "list item outside of a list"}
			}
			listItems = append(listItems, strings.TrimSpace(line[1:]))

		default:
			flushList()
			idx := strings.Index(line, ":")
			if idx <= 0 {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("unrecognised line %q", line)}
			}
			key := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])
			if value == "" {
				// Either an empty field or the head of a list.
				if _, dup := fields[key]; dup {
					return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("duplicate field %q", key)}
				}
				listKey = key
				continue
			}
			if err := set(lineNum, key, value); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}

	if blockKey != "" {
		return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("unterminated multi-line field %q", blockKey)}
	}
	flushList()

	return fields, nil
}
