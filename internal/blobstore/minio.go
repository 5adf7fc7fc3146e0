package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stillframe/service/internal/upload"
)

// Minio stores blobs in an S3-compatible bucket. Point it at MinIO locally or
// any S3-compatible provider in production — only endpoint and credentials change.
type Minio struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinio creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use store.
func NewMinio(endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("blobstore: created bucket %q", bucket)
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &Minio{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Commit uploads the candidate bytes under the generated name.
func (s *Minio) Commit(ctx context.Context, c *upload.Candidate) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, c.Name,
		bytes.NewReader(c.Data), int64(len(c.Data)),
		minio.PutObjectOptions{ContentType: c.ContentType},
	)
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", c.Name, err)
	}
	return c.Name, nil
}

// Remove deletes the object for ref. RemoveObject on a missing key succeeds,
// so removal is idempotent.
func (s *Minio) Remove(ctx context.Context, ref string) error {
	return s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
}

// URL returns the browser-accessible URL for ref,
// e.g. "http://localhost:9000/covers/abc.png".
func (s *Minio) URL(ref string) string {
	return s.publicBase + "/" + ref
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET
// on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
