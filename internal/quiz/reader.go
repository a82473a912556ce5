package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/videoquiz/internal/jsonx"
	"github.com/mind-engage/videoquiz/internal/storage"
)

var (
	ErrNotFound = errors.New("quiz not found")
	ErrInvalid  = errors.New("quiz document invalid")
)

const docSuffix = ".json"

// maxDocSize bounds a single quiz document read.
const maxDocSize = 8 << 20

// Reader loads quiz documents, one JSON file per quiz id, from content
// storage. It holds no cache; every call reads storage.
type Reader struct {
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewReader(blobs storage.BlobStore, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{blobs: blobs, log: log}
}

// Document returns the raw document members with "id" set to id.
func (r *Reader) Document(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	b, err := r.read(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, ok := jsonx.Object(b)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrInvalid, id)
	}
	idJSON, _ := jsonx.Marshal(id)
	doc["id"] = idJSON
	return doc, nil
}

// Load parses the quiz with the given id.
func (r *Reader) Load(ctx context.Context, id string) (Quiz, error) {
	b, err := r.read(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	var q Quiz
	if err := json.Unmarshal(b, &q); err != nil {
		return Quiz{}, fmt.Errorf("%w: %s: %v", ErrInvalid, id, err)
	}
	q.ID = id
	if q.Title == "" {
		q.Title = id
	}
	return q, nil
}

// MaxLens maps free-response item ids to their length limit (default 500).
// Any failure yields an empty map so submissions never block on content;
// found is false when no readable document exists for id.
func (r *Reader) MaxLens(ctx context.Context, id string) (lens map[string]int, found bool) {
	out := map[string]int{}
	q, err := r.Load(ctx, id)
	if err != nil {
		r.log.Debug("max length lookup skipped", zap.String("quiz_id", id), zap.Error(err))
		return out, false
	}
	for _, it := range ItemsByType(q, FreeResponseTypes...) {
		n := it.MaxLen
		if n == 0 {
			n = DefaultMaxLen
		}
		out[it.ID] = n
	}
	return out, true
}

// List summarizes every readable quiz document, ordered by id. Unreadable
// documents are skipped.
func (r *Reader) List(ctx context.Context) ([]Summary, error) {
	keys, err := r.blobs.List(ctx, docSuffix)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimSuffix(k, docSuffix)
		b, err := r.read(ctx, id)
		if err != nil {
			r.log.Warn("skipping quiz", zap.String("key", k), zap.Error(err))
			continue
		}
		var head struct {
			Title    json.RawMessage `json:"title"`
			Category json.RawMessage `json:"category"`
			Group    json.RawMessage `json:"group"`
		}
		if err := json.Unmarshal(b, &head); err != nil {
			r.log.Warn("skipping quiz", zap.String("key", k), zap.Error(err))
			continue
		}
		s := Summary{ID: id, Title: id}
		if t, ok := jsonx.String(head.Title); ok && t != "" {
			s.Title = t
		}
		if c, ok := jsonx.String(head.Category); ok {
			s.Category = &c
		}
		if g, ok := jsonx.String(head.Group); ok {
			s.Group = &g
		}
		out = append(out, s)
	}
	return out, nil
}

// Count is the number of quiz documents visible in storage.
func (r *Reader) Count(ctx context.Context) (int, error) {
	keys, err := r.blobs.List(ctx, docSuffix)
	return len(keys), err
}

func (r *Reader) Location() string { return r.blobs.Location() }

func (r *Reader) read(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	rc, err := r.blobs.Get(ctx, id+docSuffix)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxDocSize))
}
