// Package archive keeps before/after copies of processed images in Google
// Cloud Storage for debugging translation quality.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
)

// Archiver stores image snapshots. A nil *Archive is a valid no-op
// archiver, so callers never have to guard the calls.
type Archiver interface {
	SaveImage(ctx context.Context, label string, data []byte)
}

// Archive writes snapshots to a GCS bucket. Failures are logged, never
// propagated; archiving must not affect the pipeline outcome.
type Archive struct {
	client *storage.Client
	bucket string
}

func New(client *storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// SaveImage stores data under a timestamped object name built from label.
func (a *Archive) SaveImage(ctx context.Context, label string, data []byte) {
	if a == nil || a.client == nil {
		return
	}
	objectName := fmt.Sprintf("image-%d-%s.png", time.Now().UTC().Unix(), label)
	if err := a.saveBytes(ctx, objectName, data); err != nil {
		log.Printf("Failed to archive %s: %v", objectName, err)
	}
}

func (a *Archive) saveBytes(ctx context.Context, objectName string, data []byte) error {
	writer := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write to GCS: %v", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %v", err)
	}
	return nil
}
