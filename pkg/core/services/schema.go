package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
)

const submissionSchemaURL = "beacon://submission.json"

// Required fields must be present and non-empty. ts is decimal milliseconds,
// optionally with an exponent.
const submissionSchemaText = `{
  "type": "object",
  "required": ["event", "userId", "ts"],
  "properties": {
    "event":   {"type": "string", "minLength": 1},
    "userId":  {"type": "string", "minLength": 1},
    "ts":      {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?([eE][+-]?[0-9]+)?$"},
    "variant": {"type": "string"},
    "meta":    {"type": "string"}
  }
}`

var submissionSchema = mustCompile(submissionSchemaURL, submissionSchemaText)

func mustCompile(url, text string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(text)); err != nil {
		panic(err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		panic(err)
	}
	return sch
}

// validateSubmission checks the decoded fields. Empty strings count as missing.
func validateSubmission(sub domain.Submission) error {
	doc := map[string]interface{}{}
	for k, v := range map[string]string{
		"event":   sub.Event,
		"userId":  sub.UserID,
		"ts":      sub.TS,
		"variant": sub.Variant,
		"meta":    sub.Meta,
	} {
		if v != "" {
			doc[k] = v
		}
	}

	err := submissionSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%w: %s", domain.ErrValidation, describe(ve))
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// describe flattens the leaf causes into one line.
func describe(ve *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msg := e.Message
			if loc := strings.TrimPrefix(e.InstanceLocation, "/"); loc != "" {
				msg = loc + ": " + msg
			}
			msgs = append(msgs, msg)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
