package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"protv/internal/utils"
	"protv/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	folderMarkerName = ".folder"
	objectKeyIDSize  = 12
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage keeps applicant folders as key prefixes in an S3 compatible
// bucket. Links handed back are presigned GET urls.
type S3Storage struct {
	client     objectAPI
	presigner  presignAPI
	bucket     string
	rootPrefix string
	linkTTL    time.Duration
}

// NewS3Client builds an S3 client, pointed at endpoint when one is given
// (R2, MinIO and friends need path style addressing).
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func NewS3Storage(client *s3.Client, bucket, rootPrefix string, linkTTL time.Duration) *S3Storage {
	return newS3Storage(client, s3.NewPresignClient(client), bucket, rootPrefix, linkTTL)
}

func newS3Storage(client objectAPI, presigner presignAPI, bucket, rootPrefix string, linkTTL time.Duration) *S3Storage {
	return &S3Storage{
		client:     client,
		presigner:  presigner,
		bucket:     bucket,
		rootPrefix: strings.Trim(rootPrefix, "/"),
		linkTTL:    linkTTL,
	}
}

// CreateContainer writes an empty marker object so the folder exists before
// any file lands in it. The returned ref is the folder's key prefix.
func (s *S3Storage) CreateContainer(ctx context.Context, ownerID, ownerName string) (string, string, error) {
	prefix := path.Join(s.rootPrefix, FolderName(ownerID, ownerName)) + "/"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(prefix + folderMarkerName),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return "", "", fmt.Errorf("create folder %s: %w", prefix, err)
	}

	return prefix, fmt.Sprintf("s3://%s/%s", s.bucket, prefix), nil
}

func (s *S3Storage) Upload(ctx context.Context, encoded, fileName, containerRef, mimeType string) (*types.FileDescriptor, error) {
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode file content: %w", err)
	}

	if mimeType == "" {
		mimeType = defaultMimeType
	}

	baseName := safeFileName(fileName)
	key := containerRef + utils.NanoIDSize(objectKeyIDSize) + "-" + baseName

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	viewLink, err := s.presign(ctx, key, "inline", baseName)
	if err != nil {
		return nil, err
	}

	downloadLink, err := s.presign(ctx, key, "attachment", baseName)
	if err != nil {
		return nil, err
	}

	return &types.FileDescriptor{
		FileID:       key,
		FileName:     fileName,
		ViewLink:     viewLink,
		DownloadLink: downloadLink,
		MimeType:     mimeType,
	}, nil
}

func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Storage) presign(ctx context.Context, key, disposition, fileName string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(mime.FormatMediaType(disposition, map[string]string{"filename": fileName})),
	}, s3.WithPresignExpires(s.linkTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s link for %s: %w", disposition, key, err)
	}

	return req.URL, nil
}

func safeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.ReplaceAll(name, " ", "_")
}
