// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/config"
)

var ErrFileNotFound = errors.New("stored file not found")

// DocumentStorage keeps the bytes of uploaded documents, keyed by their
// sanitized filename. Saving an existing name overwrites it.
type DocumentStorage interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, name string) error
}

// NewDocumentStorage builds the backend selected by DOCS_STORAGE.
func NewDocumentStorage(cfg *config.Config) (DocumentStorage, error) {
	switch cfg.Documents.Storage {
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.Documents.UploadDir), nil
	case config.StorageS3:
		awsConfig := &aws.Config{Region: aws.String(cfg.AWS.Region)}
		if cfg.AWS.AccessKeyID != "" {
			awsConfig.Credentials = credentials.NewStaticCredentials(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			)
		}
		if cfg.AWS.Endpoint != "" {
			awsConfig.Endpoint = aws.String(cfg.AWS.Endpoint)
			awsConfig.S3ForcePathStyle = aws.Bool(true)
		}

		sess, err := session.NewSession(awsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		return NewS3Storage(s3.New(sess), cfg.AWS.S3Bucket, cfg.Documents.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported document storage backend: %s", cfg.Documents.Storage)
	}
}

type localStorage struct {
	dir string
}

func NewLocalStorage(dir string) DocumentStorage {
	return &localStorage{dir: dir}
}

func (s *localStorage) Save(_ context.Context, name string, r io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

func (s *localStorage) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrFileNotFound
		}
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrFileNotFound
	}
	return f, info.Size(), nil
}

func (s *localStorage) Remove(_ context.Context, name string) error {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

type s3Storage struct {
	client s3iface.S3API
	bucket string
	prefix string
}

func NewS3Storage(client s3iface.S3API, bucket, prefix string) DocumentStorage {
	return &s3Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *s3Storage) key(name string) *string {
	return aws.String(s.prefix + name)
}

func (s *s3Storage) Save(ctx context.Context, name string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read upload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	logrus.WithField("key", aws.StringValue(s.key(name))).Debug("Stored document in S3")
	return nil
}

func (s *s3Storage) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, 0, ErrFileNotFound
		}
		return nil, 0, fmt.Errorf("failed to fetch from S3: %w", err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

// Remove reports ErrFileNotFound for missing objects; S3 deletes of absent
// keys succeed silently, so existence is checked first.
func (s *s3Storage) Remove(ctx context.Context, name string) error {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to stat S3 object: %w", err)
	}

	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
