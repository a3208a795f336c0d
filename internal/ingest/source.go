package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pierrec/lz4/v4"

	"github.com/kailas-cloud/neodex/internal/domain"
)

// S3Config holds connection settings for s3:// sources.
type S3Config struct {
	Endpoint  string // e.g. "minio:9000" or "s3.amazonaws.com"
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Format is the tabular encoding of a dataset.
type Format string

// Format constants.
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Compression is the stream compression wrapped around a dataset.
type Compression string

// Compression constants.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// source is an opened dataset stream.
type source struct {
	uri         string
	format      Format
	compression Compression
	r           io.Reader
	closers     []io.Closer
}

func (s *source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// detect resolves compression and format from the uri suffixes,
// e.g. "neos.csv.gz" is gzip-compressed CSV.
func detect(uri string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(uri))

	compression := CompressionNone
	switch filepath.Ext(name) {
	case ".gz", ".gzip":
		compression = CompressionGzip
	case ".zst", ".zstd":
		compression = CompressionZstd
	case ".lz4":
		compression = CompressionLZ4
	}
	if compression != CompressionNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV, compression, nil
	case ".parquet":
		return FormatParquet, compression, nil
	default:
		return "", "", fmt.Errorf("%w: dataset format of %q", domain.ErrUnsupportedFeature, uri)
	}
}

// parseS3URI splits "s3://bucket/path/to/key" into bucket and key.
func parseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: not an s3 uri: %q", domain.ErrConfiguration, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 uri %q needs bucket and key", domain.ErrConfiguration, uri)
	}
	return bucket, key, nil
}

func isS3(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

// open resolves uri to a decompressed stream.
func (l *Loader) open(ctx context.Context, uri string) (*source, error) {
	format, compression, err := detect(uri)
	if err != nil {
		return nil, err
	}
	src := &source{uri: uri, format: format, compression: compression}

	var raw io.ReadCloser
	if isS3(uri) {
		raw, err = l.openS3(ctx, uri)
	} else {
		raw, err = os.Open(filepath.Clean(uri))
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	src.r = raw
	src.closers = append(src.closers, raw)

	if err := src.decompress(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	return src, nil
}

func (s *source) decompress() error {
	switch s.compression {
	case CompressionGzip:
		zr, err := gzip.NewReader(s.r)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		s.r = zr
		s.closers = append(s.closers, zr)
	case CompressionZstd:
		zr, err := zstd.NewReader(s.r)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		s.r = rc
		s.closers = append(s.closers, rc)
	case CompressionLZ4:
		s.r = lz4.NewReader(s.r)
	}
	return nil
}

func (l *Loader) openS3(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	client, err := l.s3Client()
	if err != nil {
		return nil, err
	}
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before reading.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: s3 object %s/%s", domain.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (l *Loader) s3Client() (*minio.Client, error) {
	if l.s3.Endpoint == "" {
		return nil, fmt.Errorf("%w: s3 endpoint not configured", domain.ErrConfiguration)
	}
	mc, err := minio.New(l.s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(l.s3.AccessKey, l.s3.SecretKey, ""),
		Secure: l.s3.UseSSL,
		Region: l.s3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return mc, nil
}
