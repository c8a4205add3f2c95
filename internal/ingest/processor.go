package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"carbon-analytics-service/internal/model"
	"carbon-analytics-service/internal/observability"
	"carbon-analytics-service/internal/service"
)

const (
	SourceKafka = "kafka"
	SourceMQTT  = "mqtt"
)

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

var errMalformed = errors.New("malformed trip message")

type tripRecorder interface {
	Record(ctx context.Context, report model.TripReport) (*model.EmissionRecord, error)
}

type ingestMetrics interface {
	TripIngested(source, outcome string)
}

// Processor decodes trip messages from any transport and hands them to the
// emission service.
type Processor struct {
	recorder tripRecorder
	metrics  ingestMetrics
	log      zerolog.Logger
}

func NewProcessor(recorder tripRecorder, metrics ingestMetrics, log zerolog.Logger) *Processor {
	return &Processor{recorder: recorder, metrics: metrics, log: log}
}

// Process stores one message. Rejected messages are logged and reported as
// success; only failures worth retrying come back as errors.
func (p *Processor) Process(ctx context.Context, source string, payload []byte, topicVIN string) error {
	report, err := decodeTrip(payload, topicVIN)
	if err == nil {
		var record *model.EmissionRecord
		record, err = p.recorder.Record(ctx, report)
		if err == nil {
			p.metrics.TripIngested(source, observability.OutcomeStored)
			p.log.Debug().
				Str("source", source).
				Str("vin", record.VehicleID).
				Str("carbon_reduced_kg", record.CarbonReducedKg.String()).
				Msg("trip recorded")
			return nil
		}
	}

	if permanent(err) {
		p.metrics.TripIngested(source, observability.OutcomeRejected)
		p.log.Warn().Err(err).Str("source", source).Msg("trip message rejected")
		return nil
	}

	p.metrics.TripIngested(source, observability.OutcomeFailed)
	p.log.Error().Err(err).Str("source", source).Msg("trip message failed")
	return err
}

// processWithRetry repeats Process on transient failures up to maxAttempts,
// waiting backoff times the attempt number in between. It returns the last
// failure once attempts run out or ctx ends.
func (p *Processor) processWithRetry(ctx context.Context, source string, payload []byte, topicVIN string, backoff time.Duration) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = p.Process(ctx, source, payload, topicVIN); err == nil {
			return nil
		}
		if attempt == maxAttempts || !sleep(ctx, backoff*time.Duration(attempt)) {
			break
		}
	}
	return err
}

func permanent(err error) bool {
	return errors.Is(err, errMalformed) ||
		errors.Is(err, service.ErrInvalidTrip) ||
		errors.Is(err, service.ErrNotFound)
}

// decodeTrip parses a JSON trip report. When the transport carries the VIN in
// its topic, the payload may omit it but must not contradict it.
func decodeTrip(payload []byte, topicVIN string) (model.TripReport, error) {
	var report model.TripReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return model.TripReport{}, fmt.Errorf("%w: %v", errMalformed, err)
	}

	report.VIN = strings.TrimSpace(report.VIN)
	switch {
	case topicVIN == "":
	case report.VIN == "":
		report.VIN = topicVIN
	case report.VIN != topicVIN:
		return model.TripReport{}, fmt.Errorf("%w: vin %q does not match topic vin %q", errMalformed, report.VIN, topicVIN)
	}
	return report, nil
}
