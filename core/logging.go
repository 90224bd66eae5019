package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const (
	logFileName = "faculty-auth.log"
	logPrefix   = "faculty-auth "
)

// SetupLogging tees the standard logger and gin's writers to stdout and
// <LogDir>/faculty-auth.log. Timestamps are UTC. Close the returned file on shutdown.
func SetupLogging(cfg Config) (io.Closer, error) {
	dir := cfg.LogDir
	if dir == "" {
		dir = "./log"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	out := io.MultiWriter(os.Stdout, f)
	log.SetOutput(out)
	log.SetPrefix(logPrefix)
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmsgprefix)
	gin.DefaultWriter = out
	gin.DefaultErrorWriter = out

	log.Printf("logging to %s (session backend=%s, digest=%s)", path, cfg.SessionBackend, cfg.DigestScheme)
	return f, nil
}
