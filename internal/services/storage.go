package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/config"
)

// StorageService writes submitted photos to the local uploads directory, which
// the detection router reads from, and optionally mirrors them to S3. The
// recorded public URL points at the mirror when one is configured.
type StorageService struct {
	cfg      config.StorageConfig
	s3Client *s3.Client
}

// NewStorageService creates a new storage service
func NewStorageService(ctx context.Context, cfg config.StorageConfig) (*StorageService, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	svc := &StorageService{cfg: cfg}
	if cfg.S3.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		svc.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
				o.UsePathStyle = true
			}
		})
	}
	return svc, nil
}

// Save persists the image and returns its local path and public URL
func (s *StorageService) Save(ctx context.Context, festivalID, filename string, r io.Reader) (string, string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), randomSuffix(), sanitizeExt(filename))
	localPath := filepath.Join(s.cfg.UploadDir, name)

	file, err := os.Create(localPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return "", "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close upload file: %w", err)
	}

	publicURL := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/uploads/" + name

	if s.s3Client != nil {
		key := festivalID + "/" + name
		if url, err := s.mirror(ctx, key, localPath); err != nil {
			// The local copy is the source of truth for inference; a failed
			// mirror is not fatal to the submission.
			log.Warn().Err(err).Str("key", key).Msg("Failed to mirror photo to S3")
		} else {
			publicURL = url
		}
	}

	return localPath, publicURL, nil
}

func (s *StorageService) mirror(ctx context.Context, key, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.S3.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	if s.cfg.S3.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.S3.Endpoint, "/"), s.cfg.S3.Bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3.Bucket, s.cfg.S3.Region, key), nil
}

func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
