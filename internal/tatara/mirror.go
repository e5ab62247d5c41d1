package tatara

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MirrorClient wraps the S3 client used to publish build output to a
// remote mirror (any S3-compatible store, including Cloudflare R2).
type MirrorClient struct {
	Client     *s3.Client
	BucketName string
}

// MirrorConfigured reports whether the configuration carries enough
// settings to attempt an upload.
func MirrorConfigured(cfg *Config) bool {
	return cfg.Values["TATARA_MIRROR_ENDPOINT"] != "" &&
		cfg.Values["TATARA_MIRROR_BUCKET"] != "" &&
		cfg.Values["TATARA_MIRROR_ACCESS_KEY"] != "" &&
		cfg.Values["TATARA_MIRROR_SECRET_KEY"] != ""
}

// NewMirrorClient initializes a mirror client from configuration values.
func NewMirrorClient(ctx context.Context, cfg *Config) (*MirrorClient, error) {
	endpoint := cfg.Values["TATARA_MIRROR_ENDPOINT"]
	accessKey := cfg.Values["TATARA_MIRROR_ACCESS_KEY"]
	secretKey := cfg.Values["TATARA_MIRROR_SECRET_KEY"]
	bucketName := cfg.Values["TATARA_MIRROR_BUCKET"]
	region := cfg.Values["TATARA_MIRROR_REGION"]
	if region == "" {
		region = "auto"
	}

	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, fmt.Errorf("mirror credentials missing in configuration (TATARA_MIRROR_ENDPOINT, TATARA_MIRROR_ACCESS_KEY, TATARA_MIRROR_SECRET_KEY, TATARA_MIRROR_BUCKET)")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion(region),
	}

	if Debug {
		options = append(options, awsconfig.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load mirror config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &MirrorClient{Client: client, BucketName: bucketName}, nil
}

// UploadLocalFile uploads a file from disk to the mirror.
func (m *MirrorClient) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	contentType := "application/octet-stream"
	if strings.HasSuffix(key, ".zst") {
		contentType = "application/zstd"
	}

	_, err = m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
	})
	return err
}

// PublishRun uploads the dist archive and the checksum manifest. Mirror
// failures are the caller's to report as warnings; they never fail the run.
func (m *MirrorClient) PublishRun(ctx context.Context, archivePath, manifestPath string) error {
	for _, path := range []string{archivePath, manifestPath} {
		if path == "" {
			continue
		}
		key := filepath.Base(path)
		if err := m.UploadLocalFile(ctx, key, path); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		debugf("mirror: uploaded %s\n", key)
	}
	return nil
}
