package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformed means the response held no decodable JSON object.
	ErrMalformed = errors.New("malformed model response")
	// ErrInvalid means the JSON decoded but failed schema validation.
	ErrInvalid = errors.New("model response failed validation")
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

// JSONInstruction is appended to prompts that expect a JSON object back.
const JSONInstruction = "\n\nIMPORTANT: Respond ONLY with valid JSON. Do not include any text before or after the JSON object."

// ExtractJSON returns the JSON object embedded in a model response, preferring
// a fenced code block and falling back to the outermost braces.
func ExtractJSON(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// Decode extracts, decodes and validates a model response into out. Unknown
// fields are ignored; missing or out-of-range required fields are errors.
func Decode(text string, out any) error {
	raw := ExtractJSON(text)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
