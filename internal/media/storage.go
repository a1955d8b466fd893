// Package media stores chat attachments in MongoDB GridFS. Uploads return a
// public URL; messages reference attachments by URL only.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrFileNotFound = errors.New("media: file not found")

// Storage wraps a GridFS bucket.
type Storage struct {
	bucket        *gridfs.Bucket
	publicBaseURL string
}

// File describes a stored attachment.
type File struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Connect dials Mongo and opens the media bucket.
func Connect(ctx context.Context, uri, database, publicBaseURL string) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(database))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &Storage{bucket: bucket, publicBaseURL: publicBaseURL}, nil
}

// NewStorage wraps an existing bucket (used by tests).
func NewStorage(bucket *gridfs.Bucket, publicBaseURL string) *Storage {
	return &Storage{bucket: bucket, publicBaseURL: publicBaseURL}
}

// Upload stores content and returns its metadata.
func (s *Storage) Upload(ctx context.Context, filename, mimeType, uploaderID string, content io.Reader) (File, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"mime_type":   mimeType,
		"uploaded_by": uploaderID,
		"uploaded_at": time.Now(),
	})

	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return File{}, fmt.Errorf("media upload: %w", err)
	}
	defer stream.Close()

	size, err := io.Copy(stream, content)
	if err != nil {
		return File{}, fmt.Errorf("media copy: %w", err)
	}

	return File{
		ID:         stream.FileID.(primitive.ObjectID).Hex(),
		Filename:   filename,
		Size:       size,
		MimeType:   mimeType,
		UploadedBy: uploaderID,
		UploadedAt: time.Now(),
	}, nil
}

// Download streams a stored file into w and returns its metadata.
func (s *Storage) Download(ctx context.Context, fileID string, w io.Writer) (File, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return File{}, ErrFileNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("media download: %w", err)
	}
	defer stream.Close()

	info := stream.GetFile()
	file := File{
		ID:       fileID,
		Filename: info.Name,
		Size:     info.Length,
	}
	var meta struct {
		MimeType string `bson:"mime_type"`
	}
	if raw := info.Metadata; raw != nil {
		_ = bson.Unmarshal(raw, &meta)
		file.MimeType = meta.MimeType
	}

	if _, err := io.Copy(w, stream); err != nil {
		return File{}, fmt.Errorf("media stream: %w", err)
	}
	return file, nil
}

// PublicURL is the address a message row stores for an attachment.
func (s *Storage) PublicURL(fileID string) string {
	return fmt.Sprintf("%s/media/%s", s.publicBaseURL, fileID)
}
