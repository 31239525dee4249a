package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"coursewell/config"
	"coursewell/internal/api/identity"
	"coursewell/pkg/apperror"
	"coursewell/pkg/apperror/status"
	s3client "coursewell/pkg/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3_provider "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// mediaTypeByExtension maps accepted file extensions to the media kind the
// lesson player renders. Anything else is rejected.
var mediaTypeByExtension = map[string]string{
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".gif":  "image",
	".mp3":  "audio",
	".wav":  "audio",
	".ogg":  "audio",
}

func HandleUploadMedia(c fiber.Ctx) error {
	caller := identity.FromRequest(c)
	if caller.UserID == "" {
		return apperror.Forbidden(config.ModuleUpload, c, status.Forbidden, "missing identity")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperror.BadRequest(config.ModuleUpload, c, status.UploadMissingFile, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	mediaType, ok := mediaTypeByExtension[ext]
	if !ok {
		return apperror.BadRequest(config.ModuleUpload, c, status.UploadMissingFile,
			fmt.Sprintf("unsupported file extension %q", ext))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperror.InternalError(config.ModuleUpload, c, err)
	}
	defer file.Close()

	client, err := s3client.GetClient()
	if err != nil {
		return apperror.WriteError(config.ModuleUpload, c, fiber.StatusInternalServerError,
			status.UploadStoreFailed, err.Error())
	}

	key := fmt.Sprintf("media/%s%s", uuid.NewString(), ext)
	bucket := config.Cfg.S3.Bucket
	_, err = client.PutObject(context.Background(), &s3_provider.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(fileHeader.Size),
		ContentType:   aws.String(fileHeader.Header.Get("Content-Type")),
	})
	if err != nil {
		return apperror.WriteError(config.ModuleUpload, c, fiber.StatusInternalServerError,
			status.UploadStoreFailed, err.Error())
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(config.Cfg.S3.Endpoint, "/"), bucket, key)
	return apperror.Success(config.ModuleUpload, c, apperror.FiberSuccessMessage{
		Code:    status.OK,
		Message: "media uploaded",
		Data: fiber.Map{
			"url":        url,
			"media_type": mediaType,
		},
	})
}
