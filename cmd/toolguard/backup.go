package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"toolguard/internal/config"

	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the rule file and audit log",
		Long: `Creates a compressed .tar.gz archive containing the rule file and, when
present, the audit log. The backup is timestamped by default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()

			if outputPath == "" {
				home, _ := os.UserHomeDir()
				backupDir := filepath.Join(home, ".toolguard", "backups")
				if err := os.MkdirAll(backupDir, 0o755); err != nil {
					return fmt.Errorf("cannot create backup directory: %w", err)
				}
				ts := time.Now().Format("20060102-150405")
				outputPath = filepath.Join(backupDir, fmt.Sprintf("toolguard-backup-%s.tar.gz", ts))
			}

			files := []string{}
			if _, err := os.Stat(cfgPath); err == nil {
				files = append(files, cfgPath)
			}
			if doc, err := config.Load(cfgPath); err == nil && doc.Settings.LogFile != "" {
				logPath := config.ExpandPath(doc.Settings.LogFile)
				if _, err := os.Stat(logPath); err == nil {
					files = append(files, logPath)
				}
			}

			if len(files) == 0 {
				return fmt.Errorf("no files to backup (config: %s)", cfgPath)
			}

			if err := createTarGz(outputPath, files); err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Printf("Backup created: %s\n", outputPath)
			fmt.Printf("Files included: %d\n", len(files))
			for _, f := range files {
				info, _ := os.Stat(f)
				size := int64(0)
				if info != nil {
					size = info.Size()
				}
				fmt.Printf("  - %s (%s)\n", filepath.Base(f), humanSize(size))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default: ~/.toolguard/backups/toolguard-backup-<timestamp>.tar.gz)")
	return cmd
}

func restoreCmd() *cobra.Command {
	var inputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the rule file and audit log from a backup archive",
		Long: `Restores the rule file and audit log from a .tar.gz backup archive
created by 'toolguard backup'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" && len(args) > 0 {
				inputPath = args[0]
			}
			if inputPath == "" {
				return fmt.Errorf("specify a backup file: toolguard restore <file.tar.gz>")
			}

			cfgPath := resolveConfigPath()

			if !force {
				if _, err := os.Stat(cfgPath); err == nil {
					fmt.Printf("WARNING: This will overwrite the existing rule file.\n")
					fmt.Printf("  Rule file: %s\n", cfgPath)
					fmt.Printf("Use --force to skip this warning.\n")
					return fmt.Errorf("restore aborted (use --force to proceed)")
				}
			}

			restored, err := extractTarGz(inputPath, cfgPath)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			fmt.Printf("Restore completed from: %s\n", inputPath)
			fmt.Printf("Files restored: %d\n", len(restored))
			for _, f := range restored {
				fmt.Printf("  - %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "backup file to restore from")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing data without warning")
	return cmd
}

// createTarGz creates a .tar.gz archive from the given files.
func createTarGz(outputPath string, files []string) error {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	gzWriter := gzip.NewWriter(outFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	for _, filePath := range files {
		if err := addFileToTar(tarWriter, filePath); err != nil {
			return fmt.Errorf("add %s: %w", filePath, err)
		}
	}

	return nil
}

func addFileToTar(tw *tar.Writer, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	// Use just the base filename in the archive.
	header.Name = filepath.Base(filePath)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tw, file)
	return err
}

// extractTarGz extracts files from a backup archive. The rule file is
// written to cfgPath; anything else lands next to it.
func extractTarGz(archivePath, cfgPath string) ([]string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("not a valid gzip file: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	var restored []string

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var targetPath string
		baseName := filepath.Base(header.Name)
		if baseName == filepath.Base(cfgPath) {
			targetPath = cfgPath
		} else {
			targetPath = filepath.Join(filepath.Dir(cfgPath), baseName)
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return nil, err
		}

		outFile, err := os.Create(targetPath)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", targetPath, err)
		}

		if _, err := io.Copy(outFile, tarReader); err != nil {
			outFile.Close()
			return nil, fmt.Errorf("extract %s: %w", targetPath, err)
		}
		outFile.Close()

		restored = append(restored, targetPath)
	}

	return restored, nil
}

func humanSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
