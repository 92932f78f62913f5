package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumeBuilder/internal/config"
)

const bucketCheckTimeout = 5 * time.Second

// Client 保存导出的 PDF。写入走内部地址，下载链接用公网地址签名，两者可以相同。
type Client struct {
	rw     *minio.Client
	signer *minio.Client
	bucket string
}

// NewClient connects to MinIO and makes sure the export bucket exists.
func NewClient(ctx context.Context, cfg config.MinIOConfig) (*Client, error) {
	lookup, err := parseBucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}
	dial := func(host string, secure bool) (*minio.Client, error) {
		return minio.New(host, &minio.Options{
			Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			Secure:       secure,
			Region:       cfg.Region,
			BucketLookup: lookup,
		})
	}

	c := &Client{bucket: cfg.Bucket}
	if c.rw, err = dial(cfg.Endpoint, cfg.UseSSL); err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}
	c.signer = c.rw
	if public := strings.TrimSpace(cfg.PublicEndpoint); public != "" {
		u, err := url.Parse(public)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("minio public endpoint %q is not an absolute url", public)
		}
		if c.signer, err = dial(u.Host, u.Scheme == "https"); err != nil {
			return nil, fmt.Errorf("minio client for %s: %w", u.Host, err)
		}
	}

	if err := c.ensureBucket(ctx, cfg.Region, cfg.AutoCreateBucket); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, region string, create bool) error {
	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	ok, err := c.rw.BucketExists(ctx, c.bucket)
	switch {
	case err != nil:
		return fmt.Errorf("bucket %q: %w", c.bucket, err)
	case ok:
		return nil
	case !create:
		return fmt.Errorf("bucket %q not found and auto create is off", c.bucket)
	}
	if err := c.rw.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", c.bucket, err)
	}
	return nil
}

func parseBucketLookup(value string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	}
	return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", value)
}

// UploadFile writes one object.
func (c *Client) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.rw.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

// PresignedDownloadURL 签发限时下载链接，fileName 非空时作为附件文件名。
func (c *Client) PresignedDownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	var params url.Values
	if fileName != "" {
		params = url.Values{"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", fileName)}}
	}
	u, err := c.signer.PresignedGetObject(ctx, c.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}

// DeletePrefix removes every object under prefix in one batch; missing objects are ignored.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listErr error
	keys := make(chan minio.ObjectInfo)
	listed := make(chan struct{})
	go func() {
		defer close(listed)
		defer close(keys)
		for obj := range c.rw.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case keys <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	var errs []error
	for res := range c.rw.RemoveObjects(ctx, c.bucket, keys, minio.RemoveObjectsOptions{}) {
		if res.Err != nil && !isMissing(res.Err) {
			errs = append(errs, fmt.Errorf("%s: %w", res.ObjectName, res.Err))
		}
	}
	cancel()
	<-listed
	if listErr != nil {
		errs = append(errs, fmt.Errorf("list: %w", listErr))
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete %q: %w", prefix, errors.Join(errs...))
	}
	return nil
}

func isMissing(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

// ExportPrefix is the object prefix holding every export of one resume.
func ExportPrefix(ownerID uint, resumeID string) string {
	return fmt.Sprintf("exports/%d/%s/", ownerID, resumeID)
}
