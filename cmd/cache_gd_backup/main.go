package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bkovacev/runsight/internal/backup"
	"gopkg.in/natefinch/lumberjack.v2"
)

// activity cache google drive backup cmd

func main() {
	credentialsFile := flag.String(
		"gd-creds",
		"./drive-credentials.json",
		"google drive service account credentials json",
	)
	cachePath := flag.String(
		"cache-path",
		"./data/activities.parquet",
		"path of the local activity cache file",
	)
	logsPath := flag.String("logs-path", "/var/log/runsight-backend/cache-backup.log", "backup logs file path (empty for stdout)")
	reinit := flag.Bool("reinit", false, "delete the backups folder and start over")

	flag.Parse()

	loggingSetup(*logsPath)

	log.Println("starting activity cache backup ...")

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	if *cachePath == "" {
		log.Fatalln("activity cache path not specified")
	}
	if *reinit {
		log.Println("!! attention: will reinitialize all again...")
	}

	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read client secret file: %v", err)
	}

	s, err := backup.NewGoogleDriveBackupService(context.Background(), credentialsFileBytes, *cachePath)
	if err != nil {
		log.Fatalf("failed to create google drive backup service: %s", err)
	}

	baseTime := time.Now()

	if *reinit {
		if err := s.Reinit(baseTime); err != nil {
			log.Fatalf("reinit failed: %s", err)
		}
		log.Println("reinit done")
		return
	}

	if err := s.DoBackup(baseTime); err != nil {
		log.Fatalf("%+v", err)
	}
}

func loggingSetup(logFileName string) {
	if logFileName == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   50,    // megabytes
		LocalTime: false, // false -> use UTC
		Compress:  true,  // disabled by default
	})
}
