package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
)

// RequestBody is one of FormEncoded, JSONEncoded or Unsupported.
type RequestBody interface {
	isRequestBody()
}

type FormEncoded struct {
	Fields url.Values
}

type JSONEncoded struct {
	Object map[string]json.RawMessage
}

type Unsupported struct {
	ContentType string
}

func (FormEncoded) isRequestBody() {}
func (JSONEncoded) isRequestBody() {}
func (Unsupported) isRequestBody() {}

const (
	mediaForm = "application/x-www-form-urlencoded"
	mediaJSON = "application/json"
)

// ParseBody decodes the request according to its declared media type.
// Unknown types are not an error here; they come back as Unsupported.
func ParseBody(r *http.Request) (RequestBody, error) {
	declared := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return Unsupported{ContentType: declared}, nil
	}

	switch mediaType {
	case mediaForm:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
		}
		fields, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
		}
		return FormEncoded{Fields: fields}, nil

	case mediaJSON:
		var obj map[string]json.RawMessage
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, fmt.Errorf("%w: unexpected data after JSON object", domain.ErrMalformedBody)
		}
		if obj == nil {
			return nil, fmt.Errorf("%w: expected a JSON object", domain.ErrMalformedBody)
		}
		return JSONEncoded{Object: obj}, nil

	default:
		return Unsupported{ContentType: mediaType}, nil
	}
}

// SubmissionFrom extracts the event fields from a parsed body.
func SubmissionFrom(body RequestBody) (domain.Submission, error) {
	switch b := body.(type) {
	case FormEncoded:
		return domain.Submission{
			Event:   b.Fields.Get("event"),
			Variant: b.Fields.Get("variant"),
			UserID:  b.Fields.Get("userId"),
			TS:      b.Fields.Get("ts"),
			Meta:    b.Fields.Get("meta"),
		}, nil
	case JSONEncoded:
		return domain.Submission{
			Event:   jsonText(b.Object["event"]),
			Variant: jsonText(b.Object["variant"]),
			UserID:  jsonText(b.Object["userId"]),
			TS:      jsonText(b.Object["ts"]),
			Meta:    jsonText(b.Object["meta"]),
		}, nil
	case Unsupported:
		if b.ContentType == "" {
			return domain.Submission{}, fmt.Errorf("%w: none declared", domain.ErrUnsupportedType)
		}
		return domain.Submission{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, b.ContentType)
	default:
		return domain.Submission{}, errors.New("unknown request body")
	}
}

// jsonText returns strings unquoted and any other value as the exact
// JSON text it arrived as. null and absent read as "".
func jsonText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
