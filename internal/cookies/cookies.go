// Package cookies copies the session-cookie file from its read-only mount
// into a writable location at startup, since the extractor needs to rewrite
// the file as cookies rotate.
package cookies

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const filePermission = 0600

// Bootstrap returns the path the extractor should use, or "" when no cookie
// file is available. A configured-but-missing source is logged, not fatal.
func Bootstrap(sourcePath, destPath string, logger *zap.Logger) (string, error) {
	if sourcePath == "" {
		if _, err := os.Stat(destPath); err == nil {
			return destPath, nil
		}
		return "", nil
	}

	if _, err := os.Stat(sourcePath); err != nil {
		logger.Warn("cookie source missing, continuing without cookies",
			zap.String("source", sourcePath),
			zap.Error(err))
		return "", nil
	}

	if err := copyFile(sourcePath, destPath); err != nil {
		return "", fmt.Errorf("copy cookie file: %w", err)
	}

	logger.Info("cookie file staged",
		zap.String("source", sourcePath),
		zap.String("dest", destPath))
	return destPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
