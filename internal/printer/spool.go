package printer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SpoolSurface writes print jobs as HTML files into a spool directory that
// a printer daemon watches. A job stays a hidden temp file until Trigger
// renames it into place, so the daemon never sees half-written markup.
type SpoolSurface struct {
	Dir string
}

type spoolJob struct {
	file      *os.File
	finalPath string
	triggered bool
}

// Open creates a temp file in the spool directory.
func (s *SpoolSurface) Open(ctx context.Context) (Job, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool dir: %w", err)
	}

	f, err := os.CreateTemp(s.Dir, ".receipt-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("spool temp file: %w", err)
	}

	final := filepath.Join(s.Dir, fmt.Sprintf("receipt-%d.html", time.Now().UnixNano()))
	return &spoolJob{file: f, finalPath: final}, nil
}

func (j *spoolJob) Write(p []byte) (int, error) {
	return j.file.Write(p)
}

func (j *spoolJob) Trigger(ctx context.Context) error {
	if err := j.file.Sync(); err != nil {
		return err
	}
	if err := j.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(j.file.Name(), j.finalPath); err != nil {
		return err
	}
	j.triggered = true
	return nil
}

// Release discards the temp file when the job never reached Trigger.
func (j *spoolJob) Release() error {
	if j.triggered {
		return nil
	}
	_ = j.file.Close()
	return os.Remove(j.file.Name())
}
