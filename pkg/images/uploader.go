package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/keenpages/catalog/pkg/config"
	"github.com/pkg/errors"
)

const maxSourceBytes = 10 << 20

const dataURIPrefix = "data:"

// UploadResult is what the image store answers. A refused upload is reported
// through Error rather than as a failed call, so callers must check it.
type UploadResult struct {
	SecureURL string       `json:"secure_url,omitempty"`
	PublicID  string       `json:"public_id,omitempty"`
	Error     *UploadError `json:"error,omitempty"`
}

type UploadError struct {
	Message string `json:"message"`
}

func (r *UploadResult) Failed() bool {
	return r == nil || r.Error != nil
}

// Uploader copies the image found at a source link into managed storage.
type Uploader interface {
	Upload(ctx context.Context, sourceLink string) (*UploadResult, error)
}

// NewS3Client builds an S3 client for the configured image store. A custom
// endpoint switches to path-style addressing so S3-compatible stores work.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ImageStorageRegion),
	}
	if cfg.ImageStorageAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.ImageStorageAccessKey, cfg.ImageStorageSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load image storage config")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ImageStorageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ImageStorageEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type S3Uploader struct {
	client        *s3.Client
	httpClient    *http.Client
	bucket        string
	publicBaseURL string
}

// NewS3Uploader returns an uploader writing to bucket. Uploaded objects are
// linked as publicBaseURL/key.
func NewS3Uploader(client *s3.Client, httpClient *http.Client, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		httpClient:    httpClient,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, sourceLink string) (*UploadResult, error) {
	var (
		data    []byte
		refused *UploadResult
		err     error
	)
	if strings.HasPrefix(sourceLink, dataURIPrefix) {
		data, refused = decodeDataURI(sourceLink)
	} else {
		data, refused, err = u.download(ctx, sourceLink)
	}
	if err != nil {
		return nil, err
	}
	if refused != nil {
		return refused, nil
	}
	if len(data) > maxSourceBytes {
		return refusal("source image is too large"), nil
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return refusal("source is not an image: " + mtype.String()), nil
	}

	key := "covers/" + uuid.NewString() + mtype.Extension()
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mtype.String()),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store image")
	}

	return &UploadResult{
		SecureURL: u.publicBaseURL + "/" + key,
		PublicID:  key,
	}, nil
}

func (u *S3Uploader) download(ctx context.Context, link string) ([]byte, *UploadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, refusal("invalid source link"), nil
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to download source image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, refusal(fmt.Sprintf("source responded with HTTP %d", resp.StatusCode)), nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read source image")
	}
	return data, nil, nil
}

// decodeDataURI reads an inline "data:[<mediatype>][;base64],<data>" image.
// The declared media type is ignored; the content is sniffed like a download.
func decodeDataURI(link string) ([]byte, *UploadResult) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(link, dataURIPrefix), ",")
	if !ok {
		return nil, refusal("malformed inline image")
	}

	if strings.HasSuffix(meta, ";base64") {
		payload = strings.Join(strings.Fields(payload), "")
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, refusal("malformed inline image")
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, refusal("malformed inline image")
	}
	return []byte(data), nil
}

func refusal(msg string) *UploadResult {
	return &UploadResult{Error: &UploadError{Message: msg}}
}
