package controllers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"
)

const previewWidth = 800

var (
	s3Once   sync.Once
	s3Client *minio.Client
	s3Err    error
)

func getS3Client() (*minio.Client, error) {
	s3Once.Do(func() {
		endpoint := os.Getenv("S3_ENDPOINT")
		if endpoint == "" {
			s3Err = fmt.Errorf("S3_ENDPOINT is not configured")
			return
		}
		s3Client, s3Err = minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), ""),
			Secure: true,
		})
	})
	return s3Client, s3Err
}

// UploadInvoiceImage stores the original document photo and a compressed
// preview in S3-compatible storage and returns both URLs.
func UploadInvoiceImage(data []byte, contentType string) (string, string, error) {
	client, err := getS3Client()
	if err != nil {
		return "", "", err
	}
	bucket := os.Getenv("S3_BUCKET")
	cdnDomain := os.Getenv("S3_CDN_DOMAIN")

	var img image.Image
	switch contentType {
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		contentType = "image/jpeg"
		img, err = jpeg.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %v", err)
	}

	baseName := fmt.Sprintf("invoices/%s_%d", uuid.NewString(), time.Now().Unix())
	mainFilename := baseName + ".jpg"
	previewFilename := baseName + "_preview.jpg"

	_, err = client.PutObject(context.Background(), bucket, mainFilename,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload original image: %v", err)
	}

	previewImg := resize.Resize(previewWidth, 0, img, resize.Lanczos3)
	var previewBuf bytes.Buffer
	if err := jpeg.Encode(&previewBuf, previewImg, &jpeg.Options{Quality: 80}); err != nil {
		return "", "", fmt.Errorf("failed to encode preview image: %v", err)
	}

	_, err = client.PutObject(context.Background(), bucket, previewFilename,
		bytes.NewReader(previewBuf.Bytes()), int64(previewBuf.Len()),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload preview image: %v", err)
	}

	mainURL := fmt.Sprintf("https://%s/%s", cdnDomain, mainFilename)
	previewURL := fmt.Sprintf("https://%s/%s", cdnDomain, previewFilename)
	return mainURL, previewURL, nil
}
