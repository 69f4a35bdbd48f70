package imagestore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Store deletes product image blobs from Cloudinary. Deletion is always
// best-effort: a product removal must not fail because a blob is gone.
type Store struct {
	cld *cloudinary.Cloudinary
	log *slog.Logger
}

func New(cloudinaryURL string, log *slog.Logger) (*Store, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &Store{cld: cld, log: log}, nil
}

var versionedURL = regexp.MustCompile(`/v\d+/([^/]+)\.`)

// ExtractPublicID pulls the public id out of a Cloudinary delivery URL.
func ExtractPublicID(url string) string {
	if url == "" {
		return ""
	}
	if m := versionedURL.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	parts := strings.Split(url, "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		return ""
	}
	return strings.SplitN(filename, ".", 2)[0]
}

func (s *Store) DeleteImage(ctx context.Context, imageURL string) error {
	publicID := ExtractPublicID(imageURL)
	if publicID == "" {
		return fmt.Errorf("no public id in url %q", imageURL)
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	return nil
}

// DeleteImages removes every blob it can and logs the ones it cannot.
func (s *Store) DeleteImages(ctx context.Context, imageURLs []string) {
	for _, url := range imageURLs {
		if err := s.DeleteImage(ctx, url); err != nil {
			s.log.Error("imagestore: delete image", "url", url, "error", err)
		}
	}
}
