// Package storage implements the object store for listing media on MongoDB
// GridFS. Files are addressed by (bucket, path); the public URL is served
// back through this application's media endpoint.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore stores blobs in one GridFS bucket per logical bucket name.
type GridFSStore struct {
	db      *mongo.Database
	baseURL string
}

// NewGridFSStore wraps the database. baseURL is the externally reachable
// origin used to build public URLs (e.g. "https://api.example.com").
func NewGridFSStore(db *mongo.Database, baseURL string) *GridFSStore {
	return &GridFSStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *GridFSStore) bucket(name string) (*gridfs.Bucket, error) {
	return gridfs.NewBucket(s.db, options.GridFSBucket().SetName(name))
}

// Upload stores the blob under path and returns its public URL. An existing
// file at the same path is replaced.
func (s *GridFSStore) Upload(ctx context.Context, bucket, path string, r io.Reader) (string, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return "", fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	// Drop any previous revision so a path maps to exactly one file.
	if err := s.deleteByPath(ctx, b, path); err != nil {
		return "", err
	}

	if _, err := b.UploadFromStream(path, r); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return s.PublicURL(bucket, path), nil
}

// PublicURL builds the externally served URL for a stored blob.
func (s *GridFSStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/media/%s/%s", s.baseURL, url.PathEscape(bucket), path)
}

// Open streams a stored blob.
func (s *GridFSStore) Open(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	stream, err := b.OpenDownloadStreamByName(path)
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", bucket, path, err)
	}
	return stream, nil
}

// Remove deletes the given paths. Absent paths are skipped silently.
func (s *GridFSStore) Remove(ctx context.Context, bucket string, paths []string) error {
	b, err := s.bucket(bucket)
	if err != nil {
		return fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	for _, p := range paths {
		if err := s.deleteByPath(ctx, b, p); err != nil {
			return err
		}
	}
	return nil
}

// deleteByPath removes every revision stored under the filename.
func (s *GridFSStore) deleteByPath(ctx context.Context, b *gridfs.Bucket, path string) error {
	cur, err := b.Find(bson.M{"filename": path})
	if err != nil {
		return fmt.Errorf("find %s: %w", path, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var file struct {
			ID any `bson:"_id"`
		}
		if err := cur.Decode(&file); err != nil {
			return fmt.Errorf("decode file doc: %w", err)
		}
		if err := b.Delete(file.ID); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return cur.Err()
}
