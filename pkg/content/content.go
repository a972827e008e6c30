// Package content loads route content from local files or S3 objects.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultMaxSize is the largest content body accepted by default.
const DefaultMaxSize = 1 << 20

// Content source errors.
var (
	ErrUnsupportedSource = errors.New("unsupported content source")
	ErrNoS3Client        = errors.New("s3 source used but no s3 client configured")
	ErrTooLarge          = errors.New("content exceeds size limit")
)

// ObjectGetter is the subset of the S3 API the loader needs.
// *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader resolves content sources. A source is either an s3://bucket/key url
// or a file path; relative paths are taken from the loader's base directory.
type Loader struct {
	baseDir string
	s3      ObjectGetter
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3 sets the client used for s3:// sources.
func WithS3(client ObjectGetter) Option {
	return func(l *Loader) {
		l.s3 = client
	}
}

// WithMaxSize sets the largest accepted body in bytes.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader resolving relative file sources against baseDir.
func NewLoader(baseDir string, opts ...Option) *Loader {
	l := &Loader{
		baseDir: baseDir,
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default().With("component", "content")
	}
	return l
}

// Load returns the content stored at source.
func (l *Loader) Load(ctx context.Context, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		return l.loadS3(ctx, source)
	case strings.Contains(source, "://"):
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	default:
		return l.loadFile(source)
	}
}

func (l *Loader) loadFile(name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open content file: %w", err)
	}
	defer f.Close()

	body, err := l.readLimited(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	l.logger.Debug("loaded content file", "path", path, "bytes", len(body))
	return body, nil
}

func (l *Loader) loadS3(ctx context.Context, source string) (string, error) {
	if l.s3 == nil {
		return "", ErrNoS3Client
	}
	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return "", err
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := l.readLimited(out.Body)
	if err != nil {
		return "", fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	l.logger.Debug("loaded content object", "bucket", bucket, "key", key, "bytes", len(body))
	return body, nil
}

func (l *Loader) readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > l.maxSize {
		return "", ErrTooLarge
	}
	return string(data), nil
}

// ParseS3URL splits an s3://bucket/key url.
func ParseS3URL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s needs a bucket and a key", ErrUnsupportedSource, source)
	}
	return u.Host, key, nil
}
