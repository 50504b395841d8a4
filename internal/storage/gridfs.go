package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS stores objects in a MongoDB GridFS bucket. Object paths are the hex
// ObjectIDs of the stored files.
type GridFS struct {
	client *mongo.Client
	bucket *gridfs.Bucket
	signer *Signer
	ttl    time.Duration
}

func NewGridFS(ctx context.Context, cfg internal.GridFSStorageConfig, signer *Signer, ttl time.Duration) (*GridFS, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(cfg.Database), options.GridFSBucket().SetName(cfg.Bucket))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &GridFS{client: client, bucket: bucket, signer: signer, ttl: ttl}, nil
}

func (g *GridFS) Backend() string { return BackendGridFS }

func (g *GridFS) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

func (g *GridFS) Upload(ctx context.Context, data []byte, name, contentType string) (*Object, error) {
	checksum := Checksum(data)
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "content_type", Value: contentType},
		{Key: "sha256", Value: checksum},
	})

	id, err := g.bucket.UploadFromStream(SafeName(name), bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("gridfs upload: %w", err)
	}

	path := id.Hex()
	link, err := g.URL(ctx, path, g.ttl)
	if err != nil {
		return nil, err
	}

	return &Object{
		Path:     path,
		URL:      link,
		Checksum: checksum,
		Size:     int64(len(data)),
	}, nil
}

func (g *GridFS) Delete(ctx context.Context, path string) error {
	id, err := primitive.ObjectIDFromHex(path)
	if err != nil {
		return nil
	}
	if err := g.bucket.Delete(id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

func (g *GridFS) URL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = g.ttl
	}
	return g.signer.Sign(path, ttl)
}

func (g *GridFS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(path)
	if err != nil {
		return nil, ErrObjectNotFound
	}
	stream, err := g.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gridfs open: %w", err)
	}
	return stream, nil
}
