package mediastore

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"mime"
	"path/filepath"
	"strings"
	"videohub/constant"
	"videohub/dto"
)

// ObjectClient is the subset of *minio.Client the store needs.
type ObjectClient interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Options struct {
	Bucket          string
	PublicURL       string
	SecurePublicURL string
	Probe           DurationProbe
}

type Store struct {
	client ObjectClient
	opts   Options
}

func New(client ObjectClient, opts Options) *Store {
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	opts.SecurePublicURL = strings.TrimRight(opts.SecurePublicURL, "/")
	if opts.SecurePublicURL == "" {
		opts.SecurePublicURL = opts.PublicURL
	}
	return &Store{client: client, opts: opts}
}

func objectPrefix(kind constant.AssetKind) string {
	switch kind {
	case constant.AssetKindVideo:
		return "videos"
	case constant.AssetKindImage:
		return "thumbnails"
	default:
		return "misc"
	}
}

// objectName always mints a fresh key so a replaced asset never shares an id
// with its predecessor.
func objectName(kind constant.AssetKind, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("%s/%s%s", objectPrefix(kind), uuid.NewString(), ext)
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

func contentType(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (s *Store) urls(name string) (string, string) {
	return s.opts.PublicURL + "/" + name, s.opts.SecurePublicURL + "/" + name
}

func (s *Store) Upload(ctx context.Context, localPath string, kind constant.AssetKind) (*dto.UploadedAsset, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unsupported asset kind %q", kind)
	}

	name := objectName(kind, localPath)
	info, err := s.client.FPutObject(ctx, s.opts.Bucket, name, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object", name).Msg("failed to upload object")
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}

	url, secureUrl := s.urls(name)
	asset := &dto.UploadedAsset{
		Url:        url,
		SecureUrl:  secureUrl,
		ExternalId: name,
		SizeBytes:  info.Size,
	}

	if kind == constant.AssetKindVideo && s.opts.Probe != nil {
		duration, err := s.opts.Probe(ctx, localPath)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("object", name).Msg("could not probe video duration")
		} else {
			asset.DurationSeconds = duration
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("object", name).
		Str("kind", kind.String()).
		Int64("size_bytes", info.Size).
		Msg("object uploaded")

	return asset, nil
}

// Delete removes an object. Removing a key that no longer exists succeeds, so
// callers may retry freely.
func (s *Store) Delete(ctx context.Context, externalId string, kind constant.AssetKind) error {
	if externalId == "" {
		return fmt.Errorf("delete %s: empty external id", kind)
	}

	err := s.client.RemoveObject(ctx, s.opts.Bucket, externalId, minio.RemoveObjectOptions{})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object", externalId).Msg("failed to delete object")
		return fmt.Errorf("delete %s %s: %w", kind, externalId, err)
	}

	zerolog.Ctx(ctx).Info().Str("object", externalId).Str("kind", kind.String()).Msg("object deleted")
	return nil
}

// EnsureBucket creates the bucket on first start.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
