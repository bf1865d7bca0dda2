package logsvc

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eduquest/academy/core"
)

// NewWriter returns stdout, teed into a rotating file when conf.File is set.
// The returned closer flushes and closes the file.
func NewWriter(conf core.LogConfig) (io.Writer, func() error) {
	if conf.File == "" {
		return os.Stdout, func() error { return nil }
	}
	file := &lumberjack.Logger{
		Filename:   conf.File,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, file), file.Close
}
