package core

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	appName = "compgen"

	// rotated log files are named compgen.<anything>.zst
	logFilePrefix = appName + "."
	logFileSuffix = ".zst"
	maxLogFiles   = 10
)

type Paths struct {
	HomeDir     string
	DataDir     string
	LogFile     string
	HistoryFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".local", "share", appName)
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			dataDir = filepath.Join(xdgData, appName)
		}

		defaultPaths = &Paths{
			HomeDir:     homeDir,
			DataDir:     dataDir,
			LogFile:     filepath.Join(dataDir, appName+logFileSuffix),
			HistoryFile: filepath.Join(dataDir, "history.db"),
		}

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func HistoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.HistoryFile
}

func LogDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func isLogFile(name string) bool {
	return strings.HasPrefix(name, logFilePrefix) && strings.HasSuffix(name, logFileSuffix)
}

// CleanLogFiles removes every compgen.*.zst file from the data directory.
func CleanLogFiles() error {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isLogFile(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(defaultPaths.DataDir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// RotateLogFiles removes old log files to prevent unbounded growth, keeping
// the 10 most recently modified. Called when a new log sink is opened.
func RotateLogFiles() error {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return err
	}

	var logFiles []logFileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isLogFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		logFiles = append(logFiles, logFileInfo{
			path:    filepath.Join(defaultPaths.DataDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	if len(logFiles) <= maxLogFiles {
		return nil
	}

	// newest first
	sort.Slice(logFiles, func(i, j int) bool {
		return logFiles[i].modTime.After(logFiles[j].modTime)
	})

	for _, f := range logFiles[maxLogFiles:] {
		if err := os.Remove(f.path); err != nil {
			return err
		}
	}

	return nil
}

type logFileInfo struct {
	path    string
	modTime time.Time
}
