package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
)

// UploadFile is one file packed into a multipart upload. ID is a
// caller-assigned identity echoed back in progress notifications; Size must
// be the exact number of bytes Reader yields.
type UploadFile struct {
	ID     string
	Name   string
	Reader io.Reader
	Size   int64
}

// UploadStatus tracks one file through an upload.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
)

// FileProgress is one upload progress notification. Percent applies to a
// single file; Overall covers every file in the request.
type FileProgress struct {
	FileID   string
	Filename string
	Percent  int
	Overall  int
	Status   UploadStatus
}

// UploadCallbacks receives upload lifecycle notifications. Any field may be
// nil. Callbacks run on the goroutine feeding the request body, so they must
// not block.
type UploadCallbacks struct {
	OnProgress func(FileProgress)
	OnComplete func(*Result)
	OnError    func(error)
}

// Upload sends files as one multipart/form-data request. Path captures in
// the endpoint are filled from params and the remaining keys become form
// fields alongside the file parts. Per-file progress is derived from byte
// offsets within the concatenated file contents: a file reports monotonically
// increasing percentages and exactly one terminal 100, and no file starts
// reporting before every earlier file has completed.
func (c *Client) Upload(ctx context.Context, endpoint Endpoint, params Params, files []UploadFile, cb UploadCallbacks) (*Result, error) {
	if len(files) == 0 {
		return nil, errors.New("upload: no files")
	}

	path, consumed, err := endpoint.buildPath(params)
	if err != nil {
		return nil, err
	}
	base, err := c.resolveBase(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving server address: %w", err)
	}

	tracker := newProgressTracker(files, cb.OnProgress)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		if err := writeMultipart(mw, files, bodyParams(params, consumed), tracker); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, endpoint.Method(), base+path, pr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	slog.Debug("upload", "path", req.URL.Path, "files", len(files), "status", resp.StatusCode, "elapsed", time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("reading response: %w", err)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, body)
		if cb.OnError != nil {
			cb.OnError(apiErr)
		}
		return nil, apiErr
	}

	tracker.finish()
	res := classify(resp.Header.Get("Content-Type"), body)
	if cb.OnComplete != nil {
		cb.OnComplete(res)
	}
	return res, nil
}

func writeMultipart(mw *multipart.Writer, files []UploadFile, fields Params, tracker *progressTracker) error {
	for key, v := range fields {
		if v == nil {
			continue
		}
		if err := mw.WriteField(key, paramString(v)); err != nil {
			return fmt.Errorf("writing field %s: %w", key, err)
		}
	}
	for i := range files {
		part, err := mw.CreateFormFile("file", files[i].Name)
		if err != nil {
			return fmt.Errorf("creating part for %s: %w", files[i].Name, err)
		}
		if _, err := io.Copy(part, tracker.wrap(files[i].Reader)); err != nil {
			return fmt.Errorf("reading %s: %w", files[i].Name, err)
		}
	}
	return nil
}

// progressTracker converts a cumulative count of content bytes sent into
// per-file notifications. bounds holds the cumulative end offset of each
// file within the concatenated contents; whichever file the current offset
// falls into is in flight, everything before it is complete.
type progressTracker struct {
	mu     sync.Mutex
	files  []UploadFile
	bounds []int64
	done   []bool
	last   []int
	sent   int64
	emit   func(FileProgress)
}

func newProgressTracker(files []UploadFile, emit func(FileProgress)) *progressTracker {
	bounds := make([]int64, len(files))
	var cum int64
	for i, f := range files {
		cum += f.Size
		bounds[i] = cum
	}
	return &progressTracker{
		files:  files,
		bounds: bounds,
		done:   make([]bool, len(files)),
		last:   make([]int, len(files)),
		emit:   emit,
	}
}

// wrap returns r with every read counted toward the tracker.
func (t *progressTracker) wrap(r io.Reader) io.Reader {
	return &countingReader{r: r, tracker: t}
}

type countingReader struct {
	r       io.Reader
	tracker *progressTracker
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.tracker.advance(int64(n))
	}
	return n, err
}

func (t *progressTracker) advance(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent += n
	t.tick()
}

// finish marks every remaining file complete. Called once the server has
// acknowledged the upload, it covers readers whose final bytes were consumed
// without a trailing progress tick.
func (t *progressTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.bounds) > 0 {
		t.sent = t.bounds[len(t.bounds)-1]
	}
	t.tick()
}

func (t *progressTracker) tick() {
	if t.emit == nil {
		return
	}
	for i := range t.files {
		var start int64
		if i > 0 {
			start = t.bounds[i-1]
		}
		end := t.bounds[i]

		if t.sent >= end {
			if !t.done[i] {
				t.done[i] = true
				t.last[i] = 100
				t.emit(FileProgress{
					FileID:   t.files[i].ID,
					Filename: t.files[i].Name,
					Percent:  100,
					Overall:  t.overall(),
					Status:   UploadCompleted,
				})
			}
			continue
		}

		// In-flight file: partial progress stays below 100 so the terminal
		// notification is emitted exactly once, above.
		if t.sent > start {
			pct := int(float64(t.sent-start) / float64(end-start) * 100)
			if pct > 99 {
				pct = 99
			}
			if pct > t.last[i] {
				t.last[i] = pct
				t.emit(FileProgress{
					FileID:   t.files[i].ID,
					Filename: t.files[i].Name,
					Percent:  pct,
					Overall:  t.overall(),
					Status:   UploadUploading,
				})
			}
		}
		return
	}
}

func (t *progressTracker) overall() int {
	total := t.bounds[len(t.bounds)-1]
	if total == 0 {
		return 100
	}
	pct := int(float64(t.sent) / float64(total) * 100)
	if pct > 100 {
		pct = 100
	}
	return pct
}
