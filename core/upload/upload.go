package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

const (
	KindImage    = "image"
	KindVideo    = "video"
	KindDocument = "document"

	MiB = 1024 * 1024

	sniffLen = 3072
)

// Rule lists the content types and the size allowed for a kind of upload.
type Rule struct {
	MaxSize int64
	Types   []string
}

var (
	Rules = map[string]Rule{
		KindImage:    {MaxSize: 10 * MiB, Types: []string{"image/jpeg", "image/png", "image/webp", "image/gif"}},
		KindVideo:    {MaxSize: 500 * MiB, Types: []string{"video/mp4", "video/webm", "video/quicktime"}},
		KindDocument: {MaxSize: 20 * MiB, Types: []string{"application/pdf", "image/jpeg", "image/png"}},
	}

	uploadIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	// errors
	errUnknownKind   = errors.New("must be one of: image, video, document")
	errUploadIDInUse = errors.New("an upload with this id is already running")
	errUploadID      = errors.New("only letters, digits, dashes and underscores are allowed (64 max)")
	errTooLarge      = core.ErrFileTooLarge
	errEmptyFile     = errors.New("file is empty")
	errInvalidKey    = errors.New("not an uploaded file")
)

// Input describes a single file to upload.
type Input struct {
	ID       string // optional, used to poll progress
	Kind     string
	Filename string
	Size     int64 // may be unknown (0)
	Reader   io.Reader
}

// File is a stored upload.
type File struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Uploader checks, stores and tracks uploads.
type Uploader struct {
	store   core.FileStorage
	tracker *ProgressTracker
	nowFunc func() time.Time // mockable
}

func NewUploader(store core.FileStorage, tracker *ProgressTracker) *Uploader {
	return &Uploader{store: store, tracker: tracker, nowFunc: time.Now}
}

func (u *Uploader) Progress(id string) (Progress, bool) {
	return u.tracker.Get(id)
}

func fieldErr(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// sniff detects the content type of r and returns a reader positioned at its start.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, errors.Wrap(err, "reading file header")
	}
	head = head[:n]
	if n == 0 {
		return nil, nil, fieldErr("file", errEmptyFile)
	}
	mtype := mimetype.Detect(head)

	if s, ok := r.(io.ReadSeeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err == nil {
			return mtype, s, nil
		}
	}
	return mtype, io.MultiReader(bytes.NewReader(head), r), nil
}

func allowed(mtype *mimetype.MIME, types []string) (string, bool) {
	for _, t := range types {
		if mtype.Is(t) {
			return t, true
		}
	}
	return mtype.String(), false
}

// NewKey returns a unique storage key: "<kind>s/<yyyy>/<mm>/<uuid><ext>".
func NewKey(kind, ext string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%ss/%04d/%02d/%s%s", kind, now.Year(), now.Month(), uuid.NewString(), strings.ToLower(ext))
}

// Upload stores in.Reader after checking its content type and size against the rules of its kind.
// Progress is published under in.ID (or a generated id) while the file is stored.
func (u *Uploader) Upload(ctx context.Context, in Input) (File, error) {
	rule, ok := Rules[in.Kind]
	if !ok {
		return File{}, fieldErr("kind", errUnknownKind)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	} else if !uploadIDRegex.MatchString(in.ID) {
		return File{}, fieldErr("upload_id", errUploadID)
	}
	if in.Size > rule.MaxSize {
		return File{}, fieldErr("file", errTooLarge)
	}

	mtype, r, err := sniff(in.Reader)
	if err != nil {
		return File{}, err
	}
	contentType, ok := allowed(mtype, rule.Types)
	if !ok {
		return File{}, fieldErr("file", errors.Errorf("file type %s is not allowed", contentType))
	}

	if err := u.tracker.Start(in.ID, in.Size); err != nil {
		return File{}, fieldErr("upload_id", err)
	}
	key := NewKey(in.Kind, mtype.Extension(), u.nowFunc())
	pr := &progressReader{r: r, id: in.ID, tracker: u.tracker, limit: rule.MaxSize}

	err = u.store.Put(ctx, key, pr, in.Size, contentType)
	u.tracker.Finish(in.ID, err)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			_ = u.store.Delete(ctx, key)
			return File{}, fieldErr("file", errTooLarge)
		}
		return File{}, errors.Wrap(err, "storing file")
	}

	return File{
		ID:          in.ID,
		Key:         key,
		URL:         u.store.URL(key),
		Filename:    in.Filename,
		ContentType: contentType,
		Size:        pr.read,
	}, nil
}

// Delete removes an uploaded file.
func (u *Uploader) Delete(ctx context.Context, key string) error {
	key = core.CleanString(key)
	var known bool
	for kind := range Rules {
		if strings.HasPrefix(key, kind+"s/") && !strings.Contains(key, "..") {
			known = true
			break
		}
	}
	if !known {
		return fieldErr("key", errInvalidKey)
	}
	return errors.Wrap(u.store.Delete(ctx, key), "deleting file")
}
