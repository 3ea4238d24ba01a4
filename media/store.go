package media

import (
	"context"
	"io"

	"catalog-service/models"
)

// Store uploads and removes catalog images on a media host.
//
// Uploading with a publicID that already exists in folder overwrites that
// asset in place. An empty publicID lets the store allocate a new one.
type Store interface {
	Upload(ctx context.Context, file io.Reader, folder, publicID string) (models.Asset, error)
	// DeletePrefix removes every asset whose identifier starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// DeleteFolder removes an empty folder. Stores without folders treat it as a no-op.
	DeleteFolder(ctx context.Context, folder string) error
}
