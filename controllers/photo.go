package controllers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"

	"backend/config"
)

const (
	maxFileSize       = 5 * 1024 * 1024
	compressThreshold = 100 * 1024
	resizedWidth      = 800
	uploadsDir        = "./uploads/products"
)

// PhotoStore saves product photos, compressed past the threshold, to MinIO
// when configured and to local disk otherwise.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

func NewPhotoStore(cfg *config.Config) (*PhotoStore, error) {
	if cfg.MinioEndpoint == "" {
		return &PhotoStore{}, nil
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %v", err)
	}
	return &PhotoStore{client: client, bucket: cfg.MinioBucket}, nil
}

// SaveProductPhoto stores the uploaded image and returns the path to put on
// the product.
func (s *PhotoStore) SaveProductPhoto(ctx context.Context, file *multipart.FileHeader, productID string) (string, error) {
	if file.Size > maxFileSize {
		return "", fmt.Errorf("file size exceeds the 5MB limit")
	}

	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	filename := fmt.Sprintf("%s_%d%s", productID, time.Now().Unix(), fileExt)

	srcFile, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer srcFile.Close()

	data, err := io.ReadAll(srcFile)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %v", err)
	}

	// Compress past the threshold; small images pass through untouched.
	if file.Size > compressThreshold {
		var img image.Image
		if fileExt == ".png" {
			img, err = png.Decode(bytes.NewReader(data))
		} else {
			img, err = jpeg.Decode(bytes.NewReader(data))
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %v", err)
		}

		compressed := resize.Resize(resizedWidth, 0, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, compressed, &jpeg.Options{Quality: 80}); err != nil {
			return "", fmt.Errorf("failed to encode resized image: %v", err)
		}
		data = buf.Bytes()
	}

	if s.client != nil {
		object := "products/" + filename
		_, err = s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: file.Header.Get("Content-Type"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload image to S3: %v", err)
		}
		return "/" + object, nil
	}

	if _, err := os.Stat(uploadsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(uploadsDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create product directory: %v", err)
		}
	}
	fullPath := filepath.Join(uploadsDir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save product photo: %v", err)
	}
	return "/uploads/products/" + filename, nil
}
