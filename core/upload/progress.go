package upload

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Progress is a snapshot of a running or finished upload.
type Progress struct {
	ID      string  `json:"id"`
	Bytes   int64   `json:"bytes"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`

	finishedAt time.Time
}

// ProgressTracker keeps the progress of uploads by upload ID.
// Finished entries are dropped once they are older than ttl.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[string]*Progress
	ttl     time.Duration
	nowFunc func() time.Time // mockable
}

func NewProgressTracker(ttl time.Duration) *ProgressTracker {
	return &ProgressTracker{
		entries: make(map[string]*Progress),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// purge drops expired entries. mu must be held.
func (pt *ProgressTracker) purge() {
	now := pt.nowFunc()
	for id, p := range pt.entries {
		if p.Done && now.Sub(p.finishedAt) > pt.ttl {
			delete(pt.entries, id)
		}
	}
}

// Start registers a new upload. It fails if an upload with the same id is still running.
func (pt *ProgressTracker) Start(id string, total int64) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.purge()

	if p, ok := pt.entries[id]; ok && !p.Done {
		return errUploadIDInUse
	}
	pt.entries[id] = &Progress{ID: id, Total: total}
	return nil
}

func (pt *ProgressTracker) add(id string, n int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if p, ok := pt.entries[id]; ok {
		p.Bytes += n
		if p.Total > 0 {
			p.Percent = float64(p.Bytes) * 100 / float64(p.Total)
			if p.Percent > 100 {
				p.Percent = 100
			}
		}
	}
}

func (pt *ProgressTracker) reset(id string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if p, ok := pt.entries[id]; ok {
		p.Bytes = 0
		p.Percent = 0
	}
}

// Finish marks an upload as done, successfully when err is nil.
func (pt *ProgressTracker) Finish(id string, err error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	p, ok := pt.entries[id]
	if !ok {
		return
	}
	p.Done = true
	p.finishedAt = pt.nowFunc()
	if err != nil {
		p.Error = err.Error()
		return
	}
	if p.Total <= 0 {
		p.Total = p.Bytes
	}
	p.Percent = 100
}

// Get returns a copy of the progress of upload id.
func (pt *ProgressTracker) Get(id string) (Progress, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.purge()

	p, ok := pt.entries[id]
	if !ok {
		return Progress{}, false
	}
	return *p, true
}

// progressReader reports every read to the tracker and fails past limit bytes.
type progressReader struct {
	r       io.Reader
	id      string
	tracker *ProgressTracker
	read    int64
	limit   int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		if pr.limit > 0 && pr.read > pr.limit {
			return n, errTooLarge
		}
		pr.tracker.add(pr.id, int64(n))
	}
	return n, err
}

// Seek rewinds the upload when the underlying reader can seek, so that failed uploads can be retried.
func (pr *progressReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := pr.r.(io.Seeker)
	if !ok {
		return 0, errors.New("upload: reader cannot seek")
	}
	if offset != 0 || whence != io.SeekStart {
		return 0, errors.New("upload: only rewinding is supported")
	}
	pos, err := s.Seek(0, io.SeekStart)
	if err != nil {
		return pos, err
	}
	pr.read = 0
	pr.tracker.reset(pr.id)
	return pos, nil
}
