// Package ingest converts validated raw scrape payloads into canonical
// event records. It resolves Japanese date and time text, extracts
// pricing, contact, category, and tags from free text, and scores how
// confidently each field was recovered.
package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/dateparse"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/langdetect"
	eventschema "github.com/sasayosh1/sasayosh1-event-toyama2/schema"
)

// Geocoder resolves a venue name and city to coordinates. It is an
// optional capability; when absent, records simply stay uncoordinated
// and downstream travel-time checks fall back to city heuristics.
type Geocoder interface {
	Geocode(name, city string) (lat, lng float64, ok bool, err error)
}

type Service struct {
	parser         *dateparse.Parser
	geocoder       Geocoder
	detectLanguage bool
	logger         zerolog.Logger
}

// Options control optional enrichment behavior.
type Options struct {
	MaxFutureDays  int
	DetectLanguage bool
	Geocoder       Geocoder
}

// Stats summarizes one batch conversion.
type Stats struct {
	FilesRead int
	Accepted  int
	Rejected  int
	// Failures maps source file (or payload index) to the rejection cause.
	Failures map[string]string
}

func NewService(logger zerolog.Logger, opts Options) *Service {
	parser := dateparse.New()
	if opts.MaxFutureDays > 0 {
		parser = dateparse.NewWithMaxFuture(opts.MaxFutureDays)
	}
	return &Service{
		parser:         parser,
		geocoder:       opts.Geocoder,
		detectLanguage: opts.DetectLanguage,
		logger:         logger,
	}
}

// FromRaw converts one validated raw payload into a canonical record.
// Date text that cannot be resolved rejects the whole payload; every
// other enrichment is best effort.
func (s *Service) FromRaw(raw *eventschema.RawEvent) (*event.Record, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw event is nil")
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	dateRange, err := s.parser.ParseRange(raw.DateText, globaltime.Today())
	if err != nil {
		return nil, fmt.Errorf("resolve date text %q: %w", raw.DateText, err)
	}

	rec := &event.Record{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(raw.Description),
		SourceURL:   strings.TrimSpace(raw.URL),
		SourceSite:  strings.TrimSpace(raw.Site),
		UpdatedAt:   globaltime.Now().UTC(),
	}
	rec.AddSource(rec.SourceSite)

	rec.Timing = event.Timing{
		StartDate: dateRange.Start,
		RawText:   strings.TrimSpace(raw.DateText),
	}
	if dateRange.End != nil {
		rec.Timing.EndDate = *dateRange.End
	}

	timeText := strings.TrimSpace(raw.TimeText)
	if timeText == "" {
		timeText = rec.Description
	}
	start, end := extractTimes(timeText)
	rec.Timing.StartTime = start
	rec.Timing.EndTime = end
	rec.Timing.AllDay = start == nil

	rec.Location = buildLocation(raw)
	s.geocodeLocation(rec)
	rec.Pricing = parsePricing(firstNonEmpty(raw.PriceText, raw.Description))
	rec.Contact = parseContact(raw.Description)
	rec.Category = detectCategory(rec.Title, rec.Description)
	rec.Tags = extractTags(rec.Title, rec.Description)

	if s.detectLanguage {
		if lang := langdetect.DetectISO6391(rec.Title + " " + rec.Description); lang != "" {
			rec.Tags = appendTag(rec.Tags, "lang:"+lang)
		}
	}

	rec.CollectedAt = collectedAt(raw)
	rec.Confidence = parseConfidence(rec)
	rec.RecomputeQuality()
	return rec, nil
}

// IngestPayload validates and converts one raw JSON payload.
func (s *Service) IngestPayload(payload json.RawMessage) (*event.Record, error) {
	raw, err := eventschema.ValidateRawEventPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}
	return s.FromRaw(raw)
}

// IngestDir reads every .json file under dir, validates and converts
// each payload, and returns the accepted records. A file may hold one
// payload object or an array of them. Rejected payloads are logged and
// skipped; they never abort the batch.
func (s *Service) IngestDir(dir string) ([]*event.Record, Stats, error) {
	files, err := collectJSONFiles(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("collect JSON files: %w", err)
	}
	if len(files) == 0 {
		return nil, Stats{}, fmt.Errorf("no JSON files found under %s", dir)
	}

	stats := Stats{FilesRead: len(files), Failures: map[string]string{}}
	var records []*event.Record
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read %s: %w", file, err)
		}
		for i, payload := range splitPayloads(data) {
			rec, err := s.IngestPayload(payload)
			if err != nil {
				key := fmt.Sprintf("%s#%d", file, i)
				stats.Rejected++
				stats.Failures[key] = err.Error()
				s.logger.Warn().
					Str("file", file).
					Int("index", i).
					Err(err).
					Msg("payload rejected")
				continue
			}
			stats.Accepted++
			records = append(records, rec)
		}
	}

	s.logger.Info().
		Int("files", stats.FilesRead).
		Int("accepted", stats.Accepted).
		Int("rejected", stats.Rejected).
		Msg("ingest batch completed")
	return records, stats, nil
}

// splitPayloads turns file content into individual payloads. Arrays are
// exploded so each element is validated on its own.
func splitPayloads(data []byte) []json.RawMessage {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			// Let the validator produce the decode error per payload.
			return []json.RawMessage{data}
		}
		return items
	}
	return []json.RawMessage{data}
}

func collectJSONFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// geocodeLocation fills in coordinates when a geocoder is configured
// and the payload carried none. Geocoder failures are logged, never
// fatal.
func (s *Service) geocodeLocation(rec *event.Record) {
	if s.geocoder == nil || rec.Location == nil || rec.Location.HasCoordinates() || rec.Location.Name == "" {
		return
	}
	lat, lng, ok, err := s.geocoder.Geocode(rec.Location.Name, rec.Location.City)
	if err != nil {
		s.logger.Warn().
			Str("location", rec.Location.Name).
			Err(err).
			Msg("geocoding failed")
		return
	}
	if !ok {
		return
	}
	rec.Location.Latitude = &lat
	rec.Location.Longitude = &lng
}

func buildLocation(raw *eventschema.RawEvent) *event.Location {
	name := strings.TrimSpace(raw.Location)
	city := strings.TrimSpace(raw.City)
	if city == "" {
		city = detectCity(name + " " + raw.Address + " " + raw.Title)
	}
	if name == "" && city == "" && raw.Latitude == nil {
		return nil
	}
	loc := &event.Location{
		Name:       name,
		Address:    strings.TrimSpace(raw.Address),
		City:       city,
		Prefecture: "富山県",
	}
	if raw.Latitude != nil && raw.Longitude != nil {
		lat, lng := *raw.Latitude, *raw.Longitude
		loc.Latitude = &lat
		loc.Longitude = &lng
	}
	return loc
}

func collectedAt(raw *eventschema.RawEvent) time.Time {
	if raw.CollectedAt != nil {
		if t, err := time.Parse(time.RFC3339, *raw.CollectedAt); err == nil {
			return t.UTC()
		}
	}
	return globaltime.Now().UTC()
}

func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
