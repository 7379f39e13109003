package bserve

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
)

// headerTerminator separates the header block from the body.
var headerTerminator = []byte("\r\n\r\n")

// Parse turns the bytes read from a connection into a Request. Invalid UTF-8 in the header block is
// replaced rather than rejected. Header lines without a colon are dropped; duplicate header names keep
// the last value. The body is everything after the first blank line, byte for byte. Every returned
// error carries [CodeBadRequest].
func Parse(raw []byte) (Request, error) {
	idx := bytes.Index(raw, headerTerminator)
	if idx < 0 {
		return Request{}, badRequest(errors.New("missing header terminator"))
	}

	head := strings.ToValidUTF8(string(raw[:idx]), "�")
	lines := strings.Split(head, "\n")

	fields := strings.Fields(strings.TrimSuffix(lines[0], "\r"))
	switch len(fields) {
	case 0:
		return Request{}, badRequest(errors.New("missing request line"))
	case 1:
		return Request{}, badRequest(errors.New("missing path"))
	case 2:
		return Request{}, badRequest(errors.New("missing HTTP version"))
	}

	method, ok := ParseMethod(fields[0])
	if !ok {
		return Request{}, badRequest(errors.Newf("invalid method %q", fields[0]))
	}

	path, rawQuery, hasQuery := strings.Cut(fields[1], "?")

	req := Request{
		Method:  method,
		Path:    path,
		Version: ParseVersion(fields[2]),
		Headers: parseHeaders(lines[1:]),
		Body:    raw[idx+len(headerTerminator):],
		Query:   parseQuery(rawQuery, hasQuery),
		Params:  map[string]string{},
	}

	return req, nil
}

func parseHeaders(lines []string) map[string]string {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(strings.TrimSuffix(line, "\r"), ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}

// parseQuery splits on '&' then on the first '='. A pair without '=' gets an empty value, so an empty
// pair, including a bare "?", yields the empty key. Values are not URL-decoded.
func parseQuery(raw string, present bool) map[string]string {
	query := map[string]string{}
	if !present {
		return query
	}

	for pair := range strings.SplitSeq(raw, "&") {
		key, value, _ := strings.Cut(pair, "=")
		query[key] = value
	}
	return query
}

func badRequest(err error) error {
	return NewError(CodeBadRequest, errors.Wrap(err, "parse request"))
}
