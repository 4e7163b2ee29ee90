package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"farmwatch/internal/telemetry"
)

// replayBatchSize bounds a batch when replaying without delays.
const replayBatchSize = 500

// ReplayFilter selects the rows a replay forwards. Empty fields match all rows.
type ReplayFilter struct {
	Session  string
	Field    string
	Channels []string
}

func (f ReplayFilter) match(row telemetry.TelemetryRow) bool {
	if f.Session != "" && row.SessionID != f.Session {
		return false
	}
	if f.Field != "" && row.Field != f.Field {
		return false
	}
	if len(f.Channels) == 0 {
		return true
	}
	for _, c := range f.Channels {
		if row.Channel == c {
			return true
		}
	}
	return false
}

// ReplayOptions tunes a replay. A Speed >0 keeps the recorded spacing
// between forwarded rows, divided by Speed; otherwise rows go out as fast as
// the writer takes them, in batches when it supports them.
type ReplayOptions struct {
	Speed  float64
	Filter ReplayFilter
}

// ReplayStats counts the rows a replay read and forwarded.
type ReplayStats struct {
	Read    int
	Written int
}

// ReplayLog replays JSONL telemetry rows from r to writer.
func ReplayLog(ctx context.Context, r io.Reader, writer TelemetryWriter, opts ReplayOptions) (ReplayStats, error) {
	var stats ReplayStats
	dec := json.NewDecoder(r)
	bw, batching := writer.(batchWriter)
	batching = batching && opts.Speed <= 0
	var batch []telemetry.TelemetryRow
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := bw.WriteBatch(batch); err != nil {
			return err
		}
		stats.Written += len(batch)
		batch = nil
		return nil
	}

	var prev time.Time
	for {
		var row telemetry.TelemetryRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, flush()
			}
			return stats, fmt.Errorf("decode row %d: %w", stats.Read+1, err)
		}
		stats.Read++
		if !opts.Filter.match(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if batching {
			batch = append(batch, row)
			if len(batch) >= replayBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
			continue
		}
		if !prev.IsZero() && opts.Speed > 0 {
			if err := sleepCtx(ctx, time.Duration(float64(row.Timestamp.Sub(prev))/opts.Speed)); err != nil {
				return stats, err
			}
		}
		if err := writer.Write(row); err != nil {
			return stats, err
		}
		stats.Written++
		prev = row.Timestamp
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ReplayLogFile opens a file and replays its telemetry rows.
func ReplayLogFile(ctx context.Context, path string, writer TelemetryWriter, opts ReplayOptions) (ReplayStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReplayStats{}, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, opts)
}
