// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the S3-compatible bucket client for lesson
// images. It wraps the AWS SDK v2 and is configured for path-style access
// so it works with MinIO, CEPH and similar gateways.
package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// deleteBatchSize is the DeleteObjects per-request key limit.
const deleteBatchSize = 1000

// ErrNotConfigured is returned by a nil *Client.
var ErrNotConfigured = errors.New("storage: object storage is not configured")

// objectAPI is the subset of the S3 client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Upload is a stored image: its bucket key and public URL.
type Upload struct {
	Key string `json:"path"`
	URL string `json:"url"`
}

// Client stores lesson images in a single bucket. A nil *Client is valid
// and fails every operation with ErrNotConfigured.
type Client struct {
	s3        objectAPI
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// UploadImage stores data under a fresh key "<uuid hex><ext>".
func (c *Client) UploadImage(ctx context.Context, data []byte, contentType, ext string) (Upload, error) {
	if c == nil {
		return Upload{}, ErrNotConfigured
	}

	id := uuid.New()
	key := hex.EncodeToString(id[:]) + ext

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Upload{}, fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return Upload{Key: key, URL: c.FileURL(key)}, nil
}

// RemoveImages deletes keys with DeleteObjects, 1000 keys per request.
// Per-key failures reported by the server are returned as one error.
func (c *Client) RemoveImages(ctx context.Context, keys []string) error {
	if c == nil {
		return ErrNotConfigured
	}

	var errs []error
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]s3types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("s3 delete objects %s: %w", c.bucket, err))
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("s3 delete %s/%s: %s", c.bucket, aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}
	return errors.Join(errs...)
}

// FileURL returns the public URL for a key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c == nil {
		return ""
	}
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}
