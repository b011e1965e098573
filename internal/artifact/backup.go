package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

// UploadBackup copies the local artifact file to a GCS bucket, keyed by run
// id so earlier runs stay retrievable. Best-effort: callers log a warning on
// failure rather than failing the run.
func UploadBackup(ctx context.Context, bucket, runID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("artifact: open %s: %w", path, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("artifact: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := fmt.Sprintf("runs/%s/%s/transaction_data.json",
		time.Now().UTC().Format("2006/01/02"), runID)

	w := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("artifact: copy to gs://%s/%s: %w", bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("artifact: finalize upload: %w", err)
	}
	return nil
}
