package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/rotisserie/eris"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-explorer-service/internal/config"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Table names carried in the message key and the "table" header.
const (
	TableAverages   = "average_magnitude"
	TablePopulation = "population"
	TableCounts     = "counts"
)

const (
	publishAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes the rows of a prepared snapshot to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSnapshot sends one message per average-magnitude, population and
// count row in a single WriteMessages call, retrying with backoff.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap *pipeline.Snapshot) error {
	msgs, err := snapshotMessages(snap)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		p.logger.Info("snapshot has no rows to publish", "snapshot_id", snap.ID)
		return nil
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			p.logger.Info("snapshot published", "snapshot_id", snap.ID, "messages", len(msgs), "attempts", attempt)
			return nil
		}
		if attempt == publishAttempts || ctx.Err() != nil {
			return eris.Wrapf(err, "publish snapshot %s after %d attempts", snap.ID, attempt)
		}
		p.logger.Warn("snapshot publish attempt failed", "snapshot_id", snap.ID, "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return eris.Wrapf(ctx.Err(), "publish snapshot %s", snap.ID)
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type averageRecord struct {
	SnapshotID   string   `json:"snapshot_id"`
	Province     string   `json:"province"`
	AvgMagnitude *float64 `json:"avg_magnitude"`
	Events       int      `json:"events"`
}

type populationRecord struct {
	SnapshotID string `json:"snapshot_id"`
	Province   string `json:"province"`
	Pop2020    int    `json:"pop_2020"`
	Pop2015    int    `json:"pop_2015"`
	Pop2010    int    `json:"pop_2010"`
	Pop2000    int    `json:"pop_2000"`
}

type countRecord struct {
	SnapshotID string `json:"snapshot_id"`
	pipeline.CountRow
}

// snapshotMessages serializes every published row of snap.
func snapshotMessages(snap *pipeline.Snapshot) ([]kafkago.Message, error) {
	headers := func(table string) []kafkago.Header {
		return []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "table", Value: []byte(table)},
			{Key: "prepared_at", Value: []byte(snap.PreparedAt.Format(time.RFC3339))},
		}
	}

	msgs := make([]kafkago.Message, 0, len(snap.Map.Averages)+len(snap.Map.Population)+len(snap.Trends.Counts))
	add := func(table string, key []string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return eris.Wrapf(err, "serialize %s row", table)
		}
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(strings.Join(append([]string{table}, key...), "/")),
			Value:   data,
			Headers: headers(table),
		})
		return nil
	}

	for _, r := range snap.Map.Averages {
		rec := averageRecord{SnapshotID: snap.ID, Province: r.Province, Events: r.Events}
		if !math.IsNaN(r.Magnitude) {
			mag := r.Magnitude
			rec.AvgMagnitude = &mag
		}
		if err := add(TableAverages, []string{r.Province}, rec); err != nil {
			return nil, err
		}
	}
	for _, r := range snap.Map.Population {
		rec := populationRecord{
			SnapshotID: snap.ID, Province: r.Province,
			Pop2020: r.Population[0], Pop2015: r.Population[1], Pop2010: r.Population[2], Pop2000: r.Population[3],
		}
		if err := add(TablePopulation, []string{r.Province}, rec); err != nil {
			return nil, err
		}
	}
	for _, r := range snap.Trends.Counts {
		key := []string{strconv.Itoa(r.Year), r.Province, r.Region, r.IslandGroup}
		if err := add(TableCounts, key, countRecord{SnapshotID: snap.ID, CountRow: r}); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}
