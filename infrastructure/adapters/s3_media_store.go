package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
)

type s3MediaStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3MediaStore(s3Svc *s3.S3, s3Config *config.S3Config) outbound.MediaStorePort {
	return &s3MediaStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

func (s *s3MediaStore) Save(ctx context.Context, params outbound.StoreMediaParams) (string, error) {
	itemPath := s.getS3ItemPath(params)

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(itemPath),
		Body:          strings.NewReader(string(params.Content)),
		ContentLength: aws.Int64(int64(len(params.Content))),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", s.s3Config.BucketName).
			Str("key", itemPath).
			Msg("Failed to upload object to S3")
		return "", err
	}

	s3Url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, itemPath)
	log.Debug().
		Str("s3Url", s3Url).
		Msg("Successfully uploaded object to S3")

	return s3Url, nil
}

func (s *s3MediaStore) getS3ItemPath(params outbound.StoreMediaParams) string {
	return fmt.Sprintf("user/%s/video/%s/%s/%s", params.UserID, params.RunID, params.Kind, uuid.NewString())
}
