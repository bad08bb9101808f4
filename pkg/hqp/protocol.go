package hqp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
)

// buildRequest serializes a command with its attributes into a single
// XML document, newline-terminated, ready to write to the wire.
// Attribute values are XML-escaped by encoding/xml.
func buildRequest(command string, attrs map[string]string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0"?>`)
	buf.WriteByte('<')
	buf.WriteString(command)

	// Deterministic attribute order makes requests trivially testable.
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteString(`="`)
		xml.EscapeText(&buf, []byte(attrs[k]))
		buf.WriteByte('"')
	}
	buf.WriteString("/>")
	buf.WriteByte('\n')
	return buf.Bytes()
}

// doc is a generic parsed XML document: its root element name, every
// attribute on the root, and every immediate child element (itself
// parsed the same way). It is deliberately schema-less so a single
// decoder handles every command's response shape, including both a
// self-contained list document and a standalone item/opening/closing
// document in a streaming list response.
type doc struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Items   []doc      `xml:",any"`
}

// decodeLine parses a single newline-delimited XML document.
func decodeLine(line []byte) (doc, error) {
	var d doc
	if err := xml.Unmarshal(line, &d); err != nil {
		return doc{}, fmt.Errorf("hqp: malformed XML line: %w", err)
	}
	return d, nil
}

func (d doc) attr(name string) (string, bool) {
	for _, a := range d.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (d doc) attrString(name, def string) string {
	if v, ok := d.attr(name); ok {
		return v
	}
	return def
}

func (d doc) attrInt(name string, def int) int {
	v, ok := d.attr(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (d doc) attrIntPtr(name string) *int {
	v, ok := d.attr(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func (d doc) attrFloat(name string, def float64) float64 {
	v, ok := d.attr(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (d doc) attrBool(name string, def bool) bool {
	v, ok := d.attr(name)
	if !ok {
		return def
	}
	return v == "1" || v == "true"
}
