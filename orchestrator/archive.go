package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"situationmonitor/types"
)

// Archiver stores the cache snapshot produced by a cycle.
type Archiver interface {
	Archive(ctx context.Context, cycleID string, at time.Time, snapshot map[types.Category]types.CacheEntry) error
}

// ObjectPutter is the slice of common.S3 the archiver needs.
type ObjectPutter interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string, cacheControl string, acl s3types.ObjectCannedACL) error
}

// S3Archiver writes each snapshot to news/YYYY/MM/DD/<cycle>.json under prefix.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Archiver(client ObjectPutter, bucket, prefix string) (*S3Archiver, error) {
	if client == nil || strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 archiver needs a client and a bucket")
	}
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}, nil
}

type archivedSnapshot struct {
	CycleID    string                              `json:"cycleId"`
	ArchivedAt time.Time                           `json:"archivedAt"`
	Categories map[types.Category]types.CacheEntry `json:"categories"`
}

// Key is the object key for a cycle.
func (a *S3Archiver) Key(cycleID string, at time.Time) string {
	return a.prefix + "news/" + at.UTC().Format("2006/01/02") + "/" + cycleID + ".json"
}

func (a *S3Archiver) Archive(ctx context.Context, cycleID string, at time.Time, snapshot map[types.Category]types.CacheEntry) error {
	b, err := json.MarshalIndent(archivedSnapshot{
		CycleID:    cycleID,
		ArchivedAt: at.UTC(),
		Categories: snapshot,
	}, "", "  ")
	if err != nil {
		return err
	}
	return a.client.Put(ctx, a.bucket, a.Key(cycleID, at), bytes.NewReader(b), "application/json", "public, max-age=300", "")
}
