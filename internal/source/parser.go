package source

import (
	"bytes"
	"errors"
	"strings"
)

type parserState int

const (
	awaitingRecord parserState = iota
	inMetadata
	inBody
	// afterBody follows BODY_END; metadata lines are still accepted.
	afterBody
)

// ErrParserClosed is returned by Write after Close.
var ErrParserClosed = errors.New("parser closed")

// Parser reconstructs records from the delimited source stream.
// Write accepts fragments split at arbitrary byte positions; only complete
// lines are processed and a trailing partial line waits for the next Write.
// Parser is not safe for concurrent use.
type Parser struct {
	sink func(Record)

	startMarker     string
	bodyStartMarker string
	bodyEndMarker   string
	endMarker       string
	metaPrefix      string

	buf       []byte
	state     parserState
	pending   *recordBuilder
	discarded int
	closed    bool
}

// NewParser creates a parser for delim that passes every completed record to sink.
func NewParser(delim string, sink func(Record)) *Parser {
	return &Parser{
		sink:            sink,
		startMarker:     delim + "START" + delim,
		bodyStartMarker: delim + "BODY_START" + delim,
		bodyEndMarker:   delim + "BODY_END" + delim,
		endMarker:       delim + "END" + delim,
		metaPrefix:      delim + "-",
		state:           awaitingRecord,
	}
}

// Write feeds a fragment of the stream.
func (p *Parser) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrParserClosed
	}
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		p.processLine(string(p.buf[:i]))
		p.buf = p.buf[i+1:]
	}
	// Drop the consumed prefix so the buffer does not grow with the stream.
	if len(p.buf) == 0 {
		p.buf = nil
	} else if cap(p.buf) > 4*len(p.buf)+4096 {
		p.buf = append([]byte(nil), p.buf...)
	}
	return len(b), nil
}

// Close processes a final unterminated line and finalizes a record left open
// by the end of the stream if it already has an id.
func (p *Parser) Close() error {
	if p.closed {
		return nil
	}
	if len(p.buf) > 0 {
		p.processLine(string(p.buf))
		p.buf = nil
	}
	if p.pending != nil && p.pending.hasID() {
		p.finalize()
	}
	p.pending = nil
	p.closed = true
	return nil
}

// Discarded returns the number of records dropped, either for lacking an id
// at END or for being cut off by a new START.
func (p *Parser) Discarded() int {
	return p.discarded
}

func (p *Parser) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	trimmed := strings.TrimSpace(line)

	switch trimmed {
	case p.startMarker:
		if p.pending != nil {
			p.discarded++
		}
		p.pending = newRecordBuilder()
		p.state = inMetadata
		return
	case p.bodyStartMarker:
		if p.pending != nil {
			p.state = inBody
		}
		return
	case p.bodyEndMarker:
		if p.pending != nil {
			p.state = afterBody
		}
		return
	case p.endMarker:
		if p.pending != nil {
			p.finalize()
		}
		return
	}

	switch p.state {
	case inBody:
		p.pending.appendBody(line)
	case inMetadata, afterBody:
		if rest, ok := strings.CutPrefix(trimmed, p.metaPrefix); ok {
			key, value, found := strings.Cut(rest, ": ")
			if !found {
				// "key:" with an empty value loses its space when trimmed.
				key = strings.TrimSuffix(rest, ":")
			}
			p.pending.set(key, value)
		}
	}
}

func (p *Parser) finalize() {
	rec, ok := p.pending.build()
	p.pending = nil
	p.state = awaitingRecord
	if !ok {
		p.discarded++
		return
	}
	p.sink(rec)
}
