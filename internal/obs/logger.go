// Package obs is the server's observability surface: a logrus-backed
// leveled logger carrying forward the banner/section presentation of the
// teacher's hand-rolled pkg/logger, plus the Prometheus metrics in
// metrics.go.
package obs

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Log levels, kept as a thin facade over logrus so call sites read the
// same as the teacher's pkg/logger.Debug/Info/Warn/Error/Success.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var std = logrus.New()

func init() {
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	std.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts the minimum logged level. Backs the console's
// `set_log <n>` command.
func SetLevel(level int) {
	switch level {
	case LevelDebug:
		std.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		std.SetLevel(logrus.WarnLevel)
	case LevelError:
		std.SetLevel(logrus.ErrorLevel)
	default:
		std.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log records to w, backing the CLI's optional
// logfile argument (teacher's pkg/logger wrote straight to stdlib `log`,
// which redirects the same way via log.SetOutput).
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Fields is re-exported so call sites needn't import logrus directly.
type Fields = logrus.Fields

// With returns an entry carrying structured fields (session index, game
// code, address, ...) for one log line.
func With(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Success logs at info level with a distinguishing field, mirroring the
// teacher's green "SUCCESS" line without inventing a logrus level.
func Success(format string, args ...interface{}) {
	std.WithField("outcome", "success").Infof(format, args...)
}

// Fatal logs and terminates the process, matching the teacher's
// pkg/logger.Fatal.
func Fatal(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

// Banner prints the startup banner. Kept as plain fmt output (not
// logrus) since it is presentation, not a log record, same as the
// teacher's logger.Banner.
func Banner(title, version string) {
	fmt.Printf("==== %s (v%s) ====\n", title, version)
}

// Section prints a section header, mirroring the teacher's logger.Section.
func Section(title string) {
	fmt.Printf("\n--- %s ---\n\n", title)
}
