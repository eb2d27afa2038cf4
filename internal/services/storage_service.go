// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/printlane/printlane-backend/internal/config"
)

// StorageService stores artwork files in S3, with a local-directory fallback
// for development. The bytes it stores and the bytes the intake fingerprint
// is computed over are the same payload.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// ValidateArtwork checks size and extension against the upload config before
// any bytes are persisted or hashed.
func (s *StorageService) ValidateArtwork(filename string, size int64) error {
	maxBytes := int64(s.config.Upload.MaxArtworkSizeMB) * 1024 * 1024
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("artwork size %d bytes exceeds maximum allowed size %d bytes", size, maxBytes)
	}

	if len(s.config.Upload.AllowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(filename))
		allowed := false
		for _, allowedType := range s.config.Upload.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("file type %s is not allowed", fileExt)
		}
	}

	return nil
}

// UploadArtwork persists the raw artwork bytes and returns the durable URL.
func (s *StorageService) UploadArtwork(fileBytes []byte, originalName, contentType string) (*UploadResult, error) {
	key := s.generateFileName(originalName, "artwork")

	if s.s3Client != nil {
		return s.uploadToS3(fileBytes, key, contentType)
	}

	return s.uploadToLocal(fileBytes, key, contentType)
}

// DownloadArtwork fetches previously stored artwork bytes by storage key.
// Used by the backfill reconciliation to hash listings that predate dedup.
func (s *StorageService) DownloadArtwork(key string) ([]byte, error) {
	if s.s3Client != nil {
		out, err := s.s3Client.GetObject(&s3.GetObjectInput{
			Bucket: aws.String(s.config.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to download artwork from S3: %w", err)
		}
		defer out.Body.Close()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork body: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(s.config.Upload.LocalDir, filepath.Clean(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to read local artwork: %w", err)
	}
	return data, nil
}

// KeyFromURL strips the serving prefix from a stored artwork URL, leaving
// the storage key DownloadArtwork expects.
func (s *StorageService) KeyFromURL(url string) string {
	prefixes := []string{
		s.config.AWS.CloudFrontURL + "/",
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.config.AWS.S3Bucket, s.config.AWS.Region),
		fmt.Sprintf("http://localhost:%s/uploads/", s.config.Server.Port),
	}
	for _, prefix := range prefixes {
		if prefix != "/" && strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func (s *StorageService) uploadToS3(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		ACL:           aws.String("public-read"),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.Upload.LocalDir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write local artwork: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key)

	if contentType == "" {
		contentType = http.DetectContentType(fileBytes)
	}

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteArtwork(key string) error {
	if s.s3Client == nil {
		if err := os.Remove(filepath.Join(s.config.Upload.LocalDir, filepath.Clean(key))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local artwork: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete artwork from S3: %w", err)
	}

	return nil
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	id := uuid.New()
	ext := filepath.Ext(originalName)
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
