package storage

import (
	"context"
	"fmt"

	"protv/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	driveFolderURLFmt   = "https://drive.google.com/drive/folders/%s"
	driveFileViewURLFmt = "https://drive.google.com/file/d/%s/view"
)

// DriveStorage stands in for the Google Drive integration. It performs no
// network calls and returns mock folder and file references.
type DriveStorage struct {
	parentFolderID string
	logger         *logrus.Logger
}

func NewDriveStorage(parentFolderID string, logger *logrus.Logger) *DriveStorage {
	return &DriveStorage{
		parentFolderID: parentFolderID,
		logger:         logger,
	}
}

func (d *DriveStorage) CreateContainer(ctx context.Context, ownerID, ownerName string) (string, string, error) {
	folderID := "mock-" + ownerID

	d.logger.WithFields(logrus.Fields{
		"folder_name": FolderName(ownerID, ownerName),
		"parent_id":   d.parentFolderID,
	}).Debug("created applicant folder")

	return folderID, fmt.Sprintf(driveFolderURLFmt, folderID), nil
}

func (d *DriveStorage) Upload(ctx context.Context, encoded, fileName, containerRef, mimeType string) (*types.FileDescriptor, error) {
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	return &types.FileDescriptor{
		FileID:       fmt.Sprintf("mock-file-%s", uuid.NewString()),
		FileName:     fileName,
		ViewLink:     fmt.Sprintf(driveFileViewURLFmt, "mock-"+uuid.NewString()),
		DownloadLink: "",
		MimeType:     mimeType,
	}, nil
}

func (d *DriveStorage) Ping(ctx context.Context) error {
	return nil
}
