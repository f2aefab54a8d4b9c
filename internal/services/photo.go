package services

import (
	"context"
	"fmt"
	"time"

	appconfig "timebank-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLTTL = 5 * time.Minute

// PhotoService handles profile photo uploads to S3-compatible storage.
// Uploads are two-step: the client PUTs the bytes to a pre-signed URL,
// then confirms so the public URL gets recorded on the profile.
type PhotoService struct {
	profiles *ProfileService
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewPhotoService creates a new photo service
func NewPhotoService(profiles *ProfileService, cfg appconfig.AWSConfig) (*PhotoService, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awscfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		profiles: profiles,
		s3Client: client,
		bucket:   cfg.S3Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// UploadResponse carries the pre-signed URL for a photo upload
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoID   string `json:"photo_id"`
	PhotoURL  string `json:"photo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed PUT URL for the user's profile
// photo. Nothing is recorded on the profile until ConfirmUpload.
func (s *PhotoService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	photoID := uuid.New().String()
	key := fmt.Sprintf("profiles/%s/%s.jpg", userID, photoID)

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PhotoID:   photoID,
		PhotoURL:  s.publicURL(key),
		ExpiresIn: int(uploadURLTTL.Seconds()),
	}, nil
}

// ConfirmUpload records the uploaded photo's public URL on the profile.
// A failure here leaves an orphan object in the bucket; the error is
// returned so the client can retry the confirmation.
func (s *PhotoService) ConfirmUpload(ctx context.Context, userID, photoID string) (string, error) {
	if photoID == "" {
		return "", fmt.Errorf("%w: photo id is required", ErrValidation)
	}

	key := fmt.Sprintf("profiles/%s/%s.jpg", userID, photoID)
	url := s.publicURL(key)
	if err := s.profiles.SetPhotoURL(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *PhotoService) publicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
