// Package storage fetches source imagery and writes rendered output by URI.
// Backends cover local files, HTTP, and S3; the resolver picks one by
// scheme and handles image decode/encode at the edges.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/glowkit/filterchain/pkg/imaging"
)

// Backend moves raw bytes for one URI scheme.
type Backend interface {
	// Open returns a reader for the object at uri.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)

	// Write stores data at uri.
	Write(ctx context.Context, uri string, data io.Reader) error
}

// Resolver routes URIs to backends and converts between byte streams and
// images.
type Resolver struct {
	backends map[string]Backend
}

// NewResolver returns a resolver with the file, http, https, and s3
// backends attached. The S3 client is created lazily on first use so local
// workflows need no AWS configuration.
func NewResolver() *Resolver {
	return &Resolver{backends: map[string]Backend{
		"file":  &FileBackend{},
		"http":  &HTTPBackend{},
		"https": &HTTPBackend{},
		"s3":    &S3Backend{},
	}}
}

// Register attaches a backend for a scheme, replacing any existing one.
func (r *Resolver) Register(scheme string, backend Backend) {
	r.backends[scheme] = backend
}

// backendFor resolves the backend for a URI.
func (r *Resolver) backendFor(uri string) (Backend, error) {
	scheme, _, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("no backend for scheme '%s'", scheme)
	}
	return backend, nil
}

// FetchImage loads and decodes the image at uri.
func (r *Resolver) FetchImage(ctx context.Context, uri string) (imaging.Image, error) {
	backend, err := r.backendFor(uri)
	if err != nil {
		return imaging.Image{}, err
	}
	reader, err := backend.Open(ctx, uri)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to open '%s': %w", uri, err)
	}
	defer reader.Close()

	img, err := imaging.Decode(reader)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to decode '%s': %w", uri, err)
	}
	return img, nil
}

// WriteImage encodes and stores the image at uri. The format follows the
// URI extension: .jpg/.jpeg for JPEG, anything else PNG.
func (r *Resolver) WriteImage(ctx context.Context, uri string, img imaging.Image) error {
	backend, err := r.backendFor(uri)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		var encErr error
		switch strings.ToLower(path.Ext(uri)) {
		case ".jpg", ".jpeg":
			encErr = imaging.EncodeJPEG(pw, img, 92)
		default:
			encErr = imaging.EncodePNG(pw, img)
		}
		pw.CloseWithError(encErr)
	}()

	if err := backend.Write(ctx, uri, pr); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("failed to write '%s': %w", uri, err)
	}
	return nil
}

// ParseURI splits a URI into scheme and path. Bare paths without a scheme
// are treated as local files.
func ParseURI(uri string) (scheme string, p string, err error) {
	if uri == "" {
		return "", "", fmt.Errorf("URI cannot be empty")
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid URI: %w", err)
	}
	if parsed.Scheme == "" {
		return "file", uri, nil
	}
	if parsed.Scheme == "file" {
		return "file", parsed.Path, nil
	}

	p = parsed.Host
	if parsed.Path != "" {
		p += parsed.Path
	}
	return parsed.Scheme, p, nil
}
