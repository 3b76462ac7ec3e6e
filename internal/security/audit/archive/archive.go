// Package archive uploads aged audit events to S3, batching each sweep's
// events together into one NDJSON object.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/security/audit"
)

// defaultMaxRetries is the default retry budget for S3 uploads.
const defaultMaxRetries = 3

// EventStore is the subset of GORMStore's surface archival needs: pulling a
// page of events and deleting them once they have been durably written to
// S3. Scoped as an interface so archive does not require a live database in
// tests that only exercise segment encoding.
type EventStore interface {
	Query(limit int) ([]audit.Event, error)
	DeleteBefore(cutoff time.Time) (int64, error)
}

// Archiver periodically uploads the oldest audit events to S3 as a
// newline-delimited JSON segment, then deletes them from the local store.
type Archiver struct {
	client     *s3.Client
	bucket     string
	prefix     string
	maxRetries int
	store      EventStore
}

// New builds an Archiver from cfg, or returns (nil, nil) if archival is
// disabled, matching audit.New's "disabled means no-op" convention.
func New(ctx context.Context, cfg config.AuditArchiveConfig, store EventStore) (*Archiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("audit archive: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	return &Archiver{
		client:     s3.NewFromConfig(awsCfg),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		maxRetries: maxRetries,
		store:      store,
	}, nil
}

// segmentKey names an archived segment by its cutoff timestamp, using a
// path-based S3 key so segments sort lexically by age.
func (a *Archiver) segmentKey(cutoff time.Time) string {
	key := fmt.Sprintf("%s.ndjson", cutoff.UTC().Format("20060102T150405Z"))
	if a.prefix != "" {
		return a.prefix + "/" + key
	}
	return key
}

// ArchiveBefore uploads every event older than cutoff as one NDJSON segment
// and deletes them from the local store on successful upload. It is a no-op
// if there are no events older than cutoff.
func (a *Archiver) ArchiveBefore(ctx context.Context, cutoff time.Time) error {
	events, err := a.store.Query(math.MaxInt32)
	if err != nil {
		return fmt.Errorf("query audit events: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	count := 0
	for _, ev := range events {
		if !ev.Timestamp.Before(cutoff) {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode audit event %d: %w", ev.ID, err)
		}
		count++
	}
	if count == 0 {
		return nil
	}

	key := a.segmentKey(cutoff)
	if err := a.putWithRetry(ctx, key, buf.Bytes()); err != nil {
		return err
	}

	deleted, err := a.store.DeleteBefore(cutoff)
	if err != nil {
		return fmt.Errorf("delete archived events: %w", err)
	}
	logger.Info("archived audit segment", "key", key, "events", count, "deleted", deleted)
	return nil
}

func (a *Archiver) putWithRetry(ctx context.Context, key string, body []byte) error {
	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(body),
		})
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("audit segment upload failed, retrying", "key", key, "attempt", attempt, "error", err)
	}
	return fmt.Errorf("upload audit segment %q after %d attempts: %w", key, a.maxRetries+1, lastErr)
}

// Run archives events older than retention every interval until ctx is
// canceled.
func (a *Archiver) Run(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-retention)
			if err := a.ArchiveBefore(ctx, cutoff); err != nil {
				logger.Warn("audit archive sweep failed", "error", err)
			}
		}
	}
}
