package snapshot

import (
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

const indent = "    "

// InvalidUTF8Policy decides what Encode does with payloads that are not valid UTF-8.
type InvalidUTF8Policy string

const (
	// InvalidUTF8Fail aborts encoding with an *EncodingError.
	InvalidUTF8Fail InvalidUTF8Policy = "fail"
	// InvalidUTF8Skip leaves such nodes out and reports each of them to the skipped callback.
	InvalidUTF8Skip InvalidUTF8Policy = "skip"
)

var json = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

type (
	encoder struct {
		policy  InvalidUTF8Policy
		skipped func(path string)
	}
	EncodeOption func(*encoder)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func EncodeWithInvalidUTF8Policy(v InvalidUTF8Policy) EncodeOption {
	return func(o *encoder) {
		o.policy = v
	}
}

func EncodeWithSkipped(v func(path string)) EncodeOption {
	return func(o *encoder) {
		o.skipped = v
	}
}

// ParseInvalidUTF8Policy validates a policy name.
func ParseInvalidUTF8Policy(v string) (InvalidUTF8Policy, error) {
	switch p := InvalidUTF8Policy(v); p {
	case InvalidUTF8Fail, InvalidUTF8Skip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown invalid utf-8 policy %q (supported: fail, skip)", v)
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Encode renders s as a JSON object sorted by path with four space indentation.
func Encode(s Snapshot, opts ...EncodeOption) ([]byte, error) {
	enc := &encoder{policy: InvalidUTF8Fail}
	for _, opt := range opts {
		opt(enc)
	}

	var invalid []string
	values := make(map[string]*string, len(s))
	for _, path := range s.Paths() {
		value := s[path]
		if !utf8.Valid(value) {
			if enc.policy == InvalidUTF8Skip {
				if enc.skipped != nil {
					enc.skipped(path)
				}
				continue
			}
			invalid = append(invalid, path)
			continue
		}
		if value == nil {
			values[path] = nil
			continue
		}
		v := string(value)
		values[path] = &v
	}
	if len(invalid) > 0 {
		return nil, &EncodingError{Paths: invalid}
	}
	if len(values) == 0 {
		return []byte("{}"), nil
	}

	data, err := json.MarshalIndent(values, "", indent)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal snapshot")
	}
	return data, nil
}

// Decode parses a JSON object of string or null values.
func Decode(data []byte) (Snapshot, error) {
	var values map[string]*string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, &FormatError{Err: err}
	}
	if values == nil {
		return nil, &FormatError{Err: errors.New("expected a JSON object")}
	}

	ret := make(Snapshot, len(values))
	for path, value := range values {
		if value == nil {
			ret[path] = nil
			continue
		}
		ret[path] = append([]byte{}, *value...)
	}
	return ret, nil
}

// Fingerprint returns a hex xxh3-128 digest of encoded snapshot bytes.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}
