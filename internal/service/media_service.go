package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const uploadURLTTL = 15 * time.Minute

// MediaService hands out presigned S3 upload URLs so media bytes never pass
// through the API process.
type MediaService interface {
	CreateUploadURL(ctx context.Context, userID int64, req *transfer.UploadURLRequest) (*transfer.UploadURLResponse, error)
}

type mediaService struct {
	cfg config.Config
}

func NewMediaService(cfg config.Config) MediaService {
	return &mediaService{cfg: cfg}
}

func (s *mediaService) CreateUploadURL(ctx context.Context, userID int64, req *transfer.UploadURLRequest) (*transfer.UploadURLResponse, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Filename)), ".")
	if ext == "" || !filetype.IsSupported(ext) {
		return nil, apperror.Newf(apperror.Validation, "unsupported file extension: %q", ext)
	}
	if !filetype.IsMIMESupported(req.ContentType) {
		return nil, apperror.Newf(apperror.Validation, "unsupported content type: %q", req.ContentType)
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("uploads/%d/%s.%s", userID, id, ext)

	presigner := s3.NewPresignClient(client)
	presigned, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.S3.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, s3.WithPresignExpires(uploadURLTTL))
	if err != nil {
		slog.Info(err.Error())
		return nil, apperror.Wrap(apperror.External, "failed to presign upload", err)
	}

	fileURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3.Bucket, s.cfg.S3.Region, key)

	return &transfer.UploadURLResponse{
		UploadURL: presigned.URL,
		FileURL:   fileURL,
		Key:       key,
	}, nil
}

func (s *mediaService) s3Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.S3.AccessKey, s.cfg.S3.SecretKey, "")),
		awsconfig.WithRegion(s.cfg.S3.Region),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}
