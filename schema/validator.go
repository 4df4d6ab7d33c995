// Package eventschema validates raw scraped event payloads against the
// v1 JSON schema before they enter the pipeline.
package eventschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed raw_event.schema.json
var rawEventSchemaJSON string

// RawEvent is one scraped record as delivered by a site scraper. Date
// and time text stay unparsed here; the ingest service resolves them.
type RawEvent struct {
	PayloadVersion string   `json:"payload_version"`
	Site           string   `json:"site"`
	Title          string   `json:"title"`
	DateText       string   `json:"date_text"`
	Description    string   `json:"description,omitempty"`
	Location       string   `json:"location,omitempty"`
	Address        string   `json:"address,omitempty"`
	City           string   `json:"city,omitempty"`
	URL            string   `json:"url,omitempty"`
	TimeText       string   `json:"time_text,omitempty"`
	PriceText      string   `json:"price_text,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	CollectedAt    *string  `json:"collected_at,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateRawEventPayload checks one payload against the schema and the
// semantic rules and returns the decoded record.
func ValidateRawEventPayload(payload json.RawMessage) (*RawEvent, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var raw RawEvent
	if err := json.Unmarshal(normalized, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&raw); err != nil {
		return nil, err
	}

	return &raw, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("raw_event.schema.json", strings.NewReader(rawEventSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("raw_event.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(raw *RawEvent) error {
	if raw == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(raw.Site) == "" {
		return fmt.Errorf("site must not be empty")
	}
	if strings.TrimSpace(raw.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(raw.DateText) == "" {
		return fmt.Errorf("date_text must not be empty")
	}
	if strings.TrimSpace(raw.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	if raw.URL != "" {
		if _, err := url.ParseRequestURI(strings.TrimSpace(raw.URL)); err != nil {
			return fmt.Errorf("url is not a valid URI: %w", err)
		}
	}
	if (raw.Latitude == nil) != (raw.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	if raw.CollectedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw.CollectedAt)); err != nil {
			return fmt.Errorf("collected_at must be RFC3339: %w", err)
		}
	}

	return nil
}
