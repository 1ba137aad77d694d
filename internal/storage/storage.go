package storage

import (
	"context"
	"regexp"
	"strings"

	"protv/pkg/types"
)

const defaultMimeType = "application/octet-stream"

// Storage provisions one folder per applicant and uploads base64 encoded
// files into it.
type Storage interface {
	CreateContainer(ctx context.Context, ownerID, ownerName string) (ref string, link string, err error)
	Upload(ctx context.Context, encoded, fileName, containerRef, mimeType string) (*types.FileDescriptor, error)
	Ping(ctx context.Context) error
}

var unsafeNameChars = regexp.MustCompile(`[/\\]+`)

// FolderName is the applicant folder name: the owner id and the owner name
// with spaces replaced by underscores.
func FolderName(ownerID, ownerName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(ownerName), " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "_")
	return ownerID + "_" + name
}
