// Package main uploads a local directory of photos to the gallery bucket.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/opensys-cosc/symposium/config"
	"github.com/opensys-cosc/symposium/pkg/storage"
)

// Uploader stores one object in the gallery bucket.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

func main() {
	dir := flag.String("dir", "", "directory of images to upload")
	prefix := flag.String("prefix", "", "key prefix (defaults to GALLERY_PREFIX)")
	concurrency := flag.Int("concurrency", 4, "parallel uploads")
	dryRun := flag.Bool("dry-run", false, "list the files without uploading")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	if *dir == "" {
		logger.Fatal("-dir is required")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Gallery.Bucket == "" {
		logger.Fatal("GALLERY_BUCKET is required")
	}
	if *prefix == "" {
		*prefix = cfg.Gallery.Prefix
	}

	files, err := collectImages(*dir)
	if err != nil {
		logger.Fatal("scan directory", zap.Error(err))
	}
	logger.Info("images found", zap.String("dir", *dir), zap.Int("count", len(files)))
	if *dryRun {
		for _, f := range files {
			fmt.Println(storage.GalleryKey(*prefix, f))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.Gallery.Bucket,
		Prefix:          *prefix,
		PublicRead:      cfg.Gallery.PublicRead,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	if err := uploadAll(ctx, s3Client, *prefix, files, *concurrency, logger); err != nil {
		logger.Fatal("upload", zap.Error(err))
	}
	logger.Info("gallery upload complete", zap.Int("count", len(files)))
}

// collectImages returns the gallery-eligible files under dir, sorted.
func collectImages(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !storage.IsImageFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > storage.MaxImageFileSize {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func uploadAll(ctx context.Context, up Uploader, prefix string, files []string, concurrency int, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, f := range files {
		f := f
		g.Go(func() error {
			return uploadFile(ctx, up, prefix, f, logger)
		})
	}
	return g.Wait()
}

func uploadFile(ctx context.Context, up Uploader, prefix, file string, logger *zap.Logger) error {
	fh, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer fh.Close()

	key := storage.GalleryKey(prefix, file)
	url, err := up.Upload(ctx, key, storage.ContentTypeForFilename(file), fh)
	if err != nil {
		return fmt.Errorf("upload %s: %w", file, err)
	}
	logger.Info("uploaded", zap.String("key", key), zap.String("url", url))
	return nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
