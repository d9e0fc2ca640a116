package quiz

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMalformedContent is returned when a stored quiz payload cannot be
// turned into a question list.
var ErrMalformedContent = errors.New("malformed quiz content")

// Question is the canonical shape of one quiz question.
// CorrectIndex is nil when no usable answer key was stored.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

var (
	answerKeys      = []string{"answer", "ans", "correctAnswer"}
	explanationKeys = []string{"explanation", "exp", "explain"}
	promptKeys      = []string{"q", "question"}
	optionKeys      = []string{"opts", "options"}
)

// Normalize converts a raw quiz payload into canonical questions. The
// payload is either a JSON-encoded string (decoded once) or an already
// decoded list. Anything else yields ErrMalformedContent.
func Normalize(payload any) ([]Question, error) {
	var entries []any
	switch v := payload.(type) {
	case string:
		decoded, err := decode([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
		}
		list, ok := decoded.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected a list of questions", ErrMalformedContent)
		}
		entries = list
	case []any:
		entries = v
	case []map[string]any:
		entries = make([]any, len(v))
		for i := range v {
			entries[i] = v[i]
		}
	default:
		return nil, fmt.Errorf("%w: unsupported payload type %T", ErrMalformedContent, payload)
	}

	questions := make([]Question, 0, len(entries))
	for i, entry := range entries {
		raw, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: question %d is not an object", ErrMalformedContent, i)
		}
		questions = append(questions, normalizeQuestion(raw))
	}
	return questions, nil
}

// NormalizeJSON decodes a JSON document once and normalizes the result. A
// document that is itself a JSON string gets the string treatment of
// Normalize, which covers payloads encoded twice.
func NormalizeJSON(data []byte) ([]Question, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return Normalize(decoded)
}

// decode checks that data is one complete JSON document and converts it
// to plain Go values. Numbers stay as json.Number text so a value the
// float parser rejects only affects the field that holds it.
func decode(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON document")
	}
	return decodeValue(data)
}

func decodeValue(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty JSON value")
	}
	switch raw[0] {
	case 'n':
		return nil, nil
	case 't', 'f':
		return raw[0] == 't', nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		list := make([]any, len(items))
		for i, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		obj := make(map[string]any, len(fields))
		for key, field := range fields {
			v, err := decodeValue(field)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		return obj, nil
	default:
		return json.Number(raw), nil
	}
}

func normalizeQuestion(raw map[string]any) Question {
	q := Question{Options: []string{}}

	if v, ok := firstPresent(raw, promptKeys); ok {
		q.Prompt = toText(v)
	}
	if v, ok := firstPresent(raw, optionKeys); ok {
		if list, ok := v.([]any); ok {
			for _, opt := range list {
				q.Options = append(q.Options, toText(opt))
			}
		}
	}
	// A literal 0 is present; only a missing key or null falls through.
	if v, ok := firstPresent(raw, answerKeys); ok {
		q.CorrectIndex = toIndex(v)
	}
	for _, key := range explanationKeys {
		if s, ok := raw[key].(string); ok && s != "" {
			q.Explanation = s
			break
		}
	}
	return q
}

func firstPresent(raw map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toIndex(v any) *int {
	switch n := v.(type) {
	case json.Number:
		return parseIndex(n.String())
	case float64:
		return floatIndex(n)
	case int:
		return &n
	case string:
		return parseIndex(strings.TrimSpace(n))
	}
	return nil
}

func parseIndex(s string) *int {
	if i, err := strconv.Atoi(s); err == nil {
		return &i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatIndex(f)
	}
	return nil
}

// floatIndex accepts whole numbers that fit in an int.
func floatIndex(f float64) *int {
	if f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return nil
	}
	i := int(f)
	return &i
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
