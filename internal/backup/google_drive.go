package backup

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	rootBackupsFolderName = "runsight-backup"
)

// GoogleDriveBackupService uploads copies of the local activity
// cache file to a dedicated folder on google drive.
type GoogleDriveBackupService struct {
	cachePath       string
	service         *drive.Service
	backupsFolderId string
}

func NewGoogleDriveBackupService(ctx context.Context, credentialsJson []byte, cachePath string) (*GoogleDriveBackupService, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	rootFolderQuery := fmt.Sprintf("mimeType = 'application/vnd.google-apps.folder' and trashed = false and name = '%s'", rootBackupsFolderName)
	backupsFolder, err := driveService.
		Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	backupsFolderId := ""
	if len(backupsFolder.Files) == 1 {
		rbf := backupsFolder.Files[0]
		log.Printf("root backups folder found, %s: %s", rbf.Name, rbf.Id)
		backupsFolderId = rbf.Id
	} else if len(backupsFolder.Files) == 0 {
		log.Println("root backups folder not found, will recreate")
	} else {
		rbf := backupsFolder.Files[0]
		log.Printf("attention: found %d root backups folders, will take the first one: %s", len(backupsFolder.Files), rbf.Id)
		backupsFolderId = rbf.Id
	}

	s := &GoogleDriveBackupService{
		cachePath: cachePath,
		service:   driveService,
	}

	if backupsFolderId == "" {
		log.Println("root backups folder not found, recreating ...")
		backupsFolderId, err = s.createRootBackupsFolder()
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", backupsFolderId)
	} else {
		log.Printf("found backups folder ID: %s", backupsFolderId)
	}

	s.backupsFolderId = backupsFolderId

	return s, nil
}

func (s *GoogleDriveBackupService) Reinit(baseTime time.Time) error {
	log.Println("activity cache backup reinit starting ...")

	err := s.service.Files.
		Delete(s.backupsFolderId).
		Do()
	if err != nil {
		return err
	}

	backupsFolderId, err := s.createRootBackupsFolder()
	if err != nil {
		return fmt.Errorf("failed to create root backups folder: %w", err)
	}

	log.Printf("new root backups folder created: %s", backupsFolderId)

	s.backupsFolderId = backupsFolderId

	return s.DoBackup(baseTime)
}

func (s *GoogleDriveBackupService) DoBackup(baseTime time.Time) error {
	cacheBytes, err := os.ReadFile(s.cachePath)
	if err != nil {
		return fmt.Errorf("failed to read activity cache file: %w", err)
	}
	if len(cacheBytes) == 0 {
		log.Println("activity cache file empty, nothing to backup")
		return nil
	}

	currentAllBackupFiles, err := s.getCacheBackupFiles(s.backupsFolderId)
	if err != nil {
		return err
	}

	log.Println("current backup files:")
	for _, file := range currentAllBackupFiles {
		log.Printf(" -- %s (%s)\n", file.Name, file.Id)
	}

	nextFileName := NextBackupFileName(baseTime, backupFileNames(currentAllBackupFiles))

	log.Printf("%s: creating file on google drive [%d bytes] ...", nextFileName, len(cacheBytes))
	fileMeta := &drive.File{
		Name: nextFileName,
		// https://developers.google.com/drive/api/v3/mime-types
		MimeType: "application/vnd.google-apps.file",
		Parents:  []string{s.backupsFolderId},
	}

	backupFile, err := s.service.
		Files.Create(fileMeta).
		Fields("id, parents").
		Media(bytes.NewReader(cacheBytes)).
		Do()
	if err != nil {
		return fmt.Errorf("%s: failed to create cache backup file: %w", nextFileName, err)
	}

	log.Printf("backup file [%s] saved: %s", nextFileName, backupFile.Id)

	return nil
}

// NextBackupFileName picks a date-stamped name that does not
// collide with any of the already present backup file names.
func NextBackupFileName(baseTime time.Time, existingNames []string) string {
	baseName := fmt.Sprintf("activities-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	nextName := baseName + ".parquet"
	fileCounter := 1
	for {
		nameExists := false
		for _, name := range existingNames {
			if name == nextName {
				nameExists = true
				break
			}
		}
		if !nameExists {
			return nextName
		}
		fileCounter++
		nextName = fmt.Sprintf("%s_%d.parquet", baseName, fileCounter)
	}
}

func (s *GoogleDriveBackupService) createRootBackupsFolder() (string, error) {
	backupsFolderMeta := &drive.File{
		Name:     rootBackupsFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	bfRes, err := s.service.
		Files.Create(backupsFolderMeta).
		Fields("id").
		Do()
	if err != nil {
		return "", err
	}

	return bfRes.Id, nil
}

func (s *GoogleDriveBackupService) getCacheBackupFiles(backupsFolderId string) ([]*drive.File, error) {
	bQuery := fmt.Sprintf("'%s' in parents and mimeType != 'application/vnd.google-apps.folder' and trashed = false", backupsFolderId)
	backups, err := s.service.
		Files.List().
		Q(bQuery).
		Fields("files(id, name, createdTime)").
		Do()
	if err != nil {
		return nil, err
	}

	return backups.Files, nil
}

func backupFileNames(files []*drive.File) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}
