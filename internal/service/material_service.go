package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
)

// MaterialService stores uploaded study materials in object storage and
// keeps their text content in the database for AI question generation.
type MaterialService interface {
	Upload(ctx context.Context, examID *uint, uploadedBy uint, title string, header *multipart.FileHeader, contentText string) (*dto.MaterialResponseDTO, error)
	Get(ctx context.Context, materialID uint) (*dto.MaterialResponseDTO, error)
	ListByExam(ctx context.Context, examID uint) ([]dto.MaterialResponseDTO, error)
	Delete(ctx context.Context, materialID uint) error
}

type materialService struct {
	materialRepo repository.MaterialRepository
	client       *minio.Client
	bucket       string
}

func NewMaterialService(materialRepo repository.MaterialRepository, cfg *config.Config) (MaterialService, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	svc := &materialService{
		materialRepo: materialRepo,
		client:       client,
		bucket:       cfg.Storage.Bucket,
	}
	if err := svc.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *materialService) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().Str("bucket", s.bucket).Msg("storage bucket created")
	}
	return nil
}

func (s *materialService) Upload(ctx context.Context, examID *uint, uploadedBy uint, title string, header *multipart.FileHeader, contentText string) (*dto.MaterialResponseDTO, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	objectKey := fmt.Sprintf("materials/%d/%d%s", uploadedBy, time.Now().UnixNano(), ext)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, file, header.Size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	material := &model.Material{
		ExamID:      examID,
		Title:       title,
		ObjectKey:   objectKey,
		FileType:    strings.TrimPrefix(ext, "."),
		ContentText: contentText,
		UploadedBy:  uploadedBy,
	}
	if err := s.materialRepo.Create(material); err != nil {
		// Orphaned object; safe to remove since nothing references it yet.
		if rmErr := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil {
			log.Error().Err(rmErr).Str("object", objectKey).Msg("failed to remove orphaned object")
		}
		return nil, err
	}

	return s.toResponse(ctx, material), nil
}

func (s *materialService) Get(ctx context.Context, materialID uint) (*dto.MaterialResponseDTO, error) {
	material, err := s.materialRepo.FindByID(materialID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, material), nil
}

func (s *materialService) ListByExam(ctx context.Context, examID uint) ([]dto.MaterialResponseDTO, error) {
	materials, err := s.materialRepo.FindByExamID(examID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.MaterialResponseDTO, 0, len(materials))
	for i := range materials {
		responses = append(responses, *s.toResponse(ctx, &materials[i]))
	}
	return responses, nil
}

func (s *materialService) Delete(ctx context.Context, materialID uint) error {
	material, err := s.materialRepo.FindByID(materialID)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, material.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		log.Error().Err(err).Str("object", material.ObjectKey).Msg("failed to remove stored object")
	}
	return s.materialRepo.Delete(materialID)
}

func (s *materialService) toResponse(ctx context.Context, material *model.Material) *dto.MaterialResponseDTO {
	resp := &dto.MaterialResponseDTO{
		ID:        material.ID,
		ExamID:    material.ExamID,
		Title:     material.Title,
		FileType:  material.FileType,
		CreatedAt: material.CreatedAt,
	}
	url, err := s.client.PresignedGetObject(ctx, s.bucket, material.ObjectKey, 24*time.Hour, nil)
	if err != nil {
		log.Warn().Err(err).Str("object", material.ObjectKey).Msg("failed to presign material URL")
		return resp
	}
	resp.URL = url.String()
	return resp
}
