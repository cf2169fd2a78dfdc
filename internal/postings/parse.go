package postings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ExtractionParseError is returned when the model output could not be read as
// JSON by any parse strategy. Raw holds the untouched output.
type ExtractionParseError struct {
	Raw   string
	Cause error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("parse extraction output: %v", e.Cause)
}

func (e *ExtractionParseError) Unwrap() error {
	return e.Cause
}

type parseStrategy struct {
	name  string
	parse func(string) (any, error)
}

// strategies are tried in order; the first success wins.
var strategies = []parseStrategy{
	{name: "strict", parse: parseStrict},
	{name: "lenient", parse: parseLenient},
}

var (
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

	wrapperKeys = []string{"jobs", "postings", "job_postings"}
)

// parseOutput runs the strategy chain over raw and returns the decoded value
// together with the name of the strategy that produced it.
func parseOutput(raw string) (any, string, error) {
	var errs []error
	for _, strategy := range strategies {
		value, err := strategy.parse(raw)
		if err == nil {
			return value, strategy.name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", strategy.name, err))
	}
	return nil, "", &ExtractionParseError{Raw: raw, Cause: errors.Join(errs...)}
}

func parseStrict(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &value); err != nil {
		return nil, err
	}
	return collection(value)
}

// parseLenient cuts the outermost bracketed span out of surrounding prose,
// removes trailing commas and escapes raw control characters inside strings.
// What JSON still rejects is handed to the YAML parser, which accepts single
// quotes and unquoted keys. Anything recovered this way must look like
// postings, so bracketed asides in a refusal are not mistaken for data.
func parseLenient(raw string) (any, error) {
	span, ok := bracketSpan(raw)
	if !ok {
		return nil, errors.New("no JSON array or object found")
	}

	span = trailingCommaPattern.ReplaceAllString(span, "$1")

	var value any
	jsonErr := json.Unmarshal([]byte(escapeControlInStrings(span)), &value)
	if jsonErr == nil {
		if list, ok := value.([]any); ok && len(list) == 0 {
			return value, nil
		}
		return postingShaped(value)
	}

	var loose any
	if yamlErr := yaml.Unmarshal([]byte(span), &loose); yamlErr != nil {
		return nil, errors.Join(jsonErr, yamlErr)
	}
	return postingShaped(loose)
}

// postingShaped accepts an object or a list of objects where at least one
// record carries a role or description key.
func postingShaped(value any) (any, error) {
	value, err := collection(value)
	if err != nil {
		return nil, err
	}

	for _, record := range records(value) {
		fields, ok := record.(map[string]any)
		if !ok {
			continue
		}
		for key := range fields {
			if strings.EqualFold(key, "role") || strings.EqualFold(key, "description") {
				return value, nil
			}
		}
	}

	return nil, errors.New("recovered value holds no posting records")
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func bracketSpan(raw string) (string, bool) {
	start := strings.IndexAny(raw, "[{")
	end := strings.LastIndexAny(raw, "]}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func escapeControlInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString && r == '\n':
			b.WriteString(`\n`)
			continue
		case inString && r == '\r':
			b.WriteString(`\r`)
			continue
		case inString && r == '\t':
			b.WriteString(`\t`)
			continue
		case inString && r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collection accepts arrays and objects only.
func collection(value any) (any, error) {
	switch value.(type) {
	case []any, map[string]any:
		return value, nil
	default:
		return nil, fmt.Errorf("expected JSON array or object, got %T", value)
	}
}

// records flattens the parsed value into a list: a single object becomes a
// one-element list and a wrapper object is unwrapped.
func records(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range wrapperKeys {
			for k, inner := range v {
				if !strings.EqualFold(k, key) {
					continue
				}
				if list, ok := inner.([]any); ok {
					return list
				}
			}
		}
		return []any{v}
	default:
		return nil
	}
}

func decodePosting(record any) (*Posting, error) {
	fields, ok := record.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record is %T, not an object", record)
	}

	var posting Posting
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &posting,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			joinSliceHook,
		),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(fields); err != nil {
		return nil, err
	}

	posting.normalize()
	return &posting, nil
}

// joinSliceHook turns a list given for a string field into a comma separated
// string.
func joinSliceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Slice {
		return data, nil
	}

	items, ok := data.([]any)
	if !ok {
		return data, nil
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		parts = append(parts, strings.TrimSpace(fmt.Sprint(item)))
	}
	return strings.Join(parts, ", "), nil
}
