package metastore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	guardPrefix = "AYON_CONTEXT::"
	guardSuffix = "::AYON_CONTEXT_END"
	// emptyPayload is the placeholder written when the span is created.
	emptyPayload = "{}"
	indent       = "    "
)

// Colons inside the JSON payload are escaped where they would form a guard
// token, so a stored value can never open or close a span.
var payloadEscaper = strings.NewReplacer(
	guardPrefix, strings.TrimSuffix(guardPrefix, "::")+`\u003a:`,
	guardSuffix, `\u003a:`+strings.TrimPrefix(guardSuffix, "::"),
)

// ErrMalformedPayload reports that a guard span existed but did not hold a
// JSON object. Decode recovers from it; Store only logs it.
var ErrMalformedPayload = errors.New("metadata payload is not valid JSON")

// Guard wraps payload in the guard delimiters.
func Guard(payload string) string {
	return guardPrefix + payload + guardSuffix
}

// Decode extracts the block stored in notes. It returns the text that must be
// written back to the document: unchanged when a valid span exists, with an
// empty span appended when none exists, or with the first span reset to the
// empty placeholder when its payload is malformed. In the malformed case the
// returned error wraps ErrMalformedPayload and the block is empty but usable.
func Decode(notes string) (Block, string, error) {
	sp, ok := locate(notes)
	if !ok {
		return Block{}, notes + "\n" + Guard(emptyPayload) + "\n", nil
	}

	block, err := parsePayload(notes[sp.payloadStart:sp.payloadEnd])
	if err != nil {
		reset := splice(notes, sp.start, sp.end, Guard(emptyPayload))
		return Block{}, reset, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return block, notes, nil
}

// Encode merges target over the block currently stored in notes and returns
// the notes with the first guard span replaced by the merged payload. Encode
// performs the read-and-initialize step itself, so it is defined for notes
// that have never held a span. A malformed stored payload is treated as empty.
func Encode(notes string, target Block) (string, error) {
	current, initialized, err := Decode(notes)
	if err != nil && !errors.Is(err, ErrMalformedPayload) {
		return "", err
	}

	merged := current.Merge(target)
	payload, err := marshalPayload(merged)
	if err != nil {
		return "", err
	}

	sp, ok := locate(initialized)
	if !ok {
		// Decode always leaves a span behind.
		return "", errors.New("metadata guard span missing after initialization")
	}
	return splice(initialized, sp.start, sp.end, Guard(payload)), nil
}

type span struct {
	start, payloadStart, payloadEnd, end int
}

// locate finds the first terminator preceded by a prefix and pairs it with
// the closest prefix before it. Guard tokens the artist typed into the notes
// before the stored span therefore stay outside it.
func locate(notes string) (span, bool) {
	for offset := 0; offset < len(notes); {
		i := strings.Index(notes[offset:], guardSuffix)
		if i < 0 {
			return span{}, false
		}
		suffixAt := offset + i
		if start := strings.LastIndex(notes[:suffixAt], guardPrefix); start >= 0 {
			return span{
				start:        start,
				payloadStart: start + len(guardPrefix),
				payloadEnd:   suffixAt,
				end:          suffixAt + len(guardSuffix),
			}, true
		}
		offset = suffixAt + len(guardSuffix)
	}
	return span{}, false
}

func parsePayload(payload string) (Block, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, errors.New("empty payload")
	}
	value, err := parsePayloadValue([]byte(trimmed))
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case map[string]any:
		return Block(v), nil
	case nil:
		return Block{}, nil
	default:
		return nil, fmt.Errorf("payload is a %T, not an object", value)
	}
}

func parsePayloadValue(data []byte) (any, error) {
	var value any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("trailing data after payload")
	}
	return value, nil
}

func marshalPayload(block Block) (string, error) {
	if block == nil {
		block = Block{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", indent)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(map[string]any(block)); err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return escapeGuardTokens(strings.TrimRight(buf.String(), "\n")), nil
}

// escapeGuardTokens repeats the replacement because escaping one token can
// expose an overlapping one, as in "AYON_CONTEXT:::AYON_CONTEXT_END".
func escapeGuardTokens(payload string) string {
	for strings.Contains(payload, guardPrefix) || strings.Contains(payload, guardSuffix) {
		payload = payloadEscaper.Replace(payload)
	}
	return payload
}

// splice replaces notes[start:end] with replacement verbatim, so "$" and
// backslashes in payloads are kept literally.
func splice(notes string, start, end int, replacement string) string {
	var b strings.Builder
	b.Grow(len(notes) - (end - start) + len(replacement))
	b.WriteString(notes[:start])
	b.WriteString(replacement)
	b.WriteString(notes[end:])
	return b.String()
}
