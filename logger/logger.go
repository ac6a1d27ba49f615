// logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/elevate/common"
)

// Log is the global logger instance of ELog.
var Log *ELog

func init() {
	// A console logger is always available; InitGlobalLogger reconfigures it.
	if err := InitGlobalLogger("", false, logrus.InfoLevel); err != nil {
		panic(fmt.Sprintf("failed to initialize default logger: %v", err))
	}
}

// ELog wraps logrus.Logger for service-specific structured logging.
type ELog struct {
	*logrus.Logger
}

// InitGlobalLogger initializes the global Log variable. When outputPath is
// non-empty, log lines are written to a daily-rotated file under that
// directory; otherwise they go to stdout. Every sink is behind the
// credential redaction hook so secret material can never reach a log line.
func InitGlobalLogger(outputPath string, verbose bool, defaultLevel logrus.Level) error {
	logger := logrus.New()

	currentLogLevel := defaultLevel
	if verbose {
		currentLogLevel = logrus.DebugLevel
	}
	logger.SetLevel(currentLogLevel)
	logger.AddHook(NewRedactionHook())

	formatterDisplayLevelConfig := ShowAboveWarn
	if verbose {
		formatterDisplayLevelConfig = ShowAll
	}

	defaultFieldsOrder := []string{
		common.LogFieldComponent, common.LogFieldOperation, common.LogFieldRequestID, common.LogFieldRemote,
	}

	if outputPath != "" {
		if err := os.MkdirAll(outputPath, 0755); err != nil {
			return fmt.Errorf("failed to create log output directory %s: %w", outputPath, err)
		}
		logFilePath := filepath.Join(outputPath, common.AppName+".log")

		writer, err := rotatelogs.New(
			logFilePath+".%Y%m%d", // Daily rotation
			rotatelogs.WithLinkName(logFilePath),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize rotatelogs for %s: %w", logFilePath, err)
		}

		logger.SetReportCaller(true)
		fileFormatter := &Formatter{
			TimestampFormat:        "2006-01-02 15:04:05.000 MST",
			NoColors:               true,
			DisplayLevelName:       formatterDisplayLevelConfig,
			FieldsDisplayWithOrder: defaultFieldsOrder,
			FieldSeparator:         " | ",
			CustomCallerFormatter: func(frame *runtime.Frame) string {
				return fmt.Sprintf(" [%s:%d %s]", filepath.Base(frame.File), frame.Line, filepath.Base(frame.Function))
			},
		}
		logger.SetFormatter(fileFormatter)

		logWriters := lfshook.WriterMap{}
		for _, level := range logrus.AllLevels {
			if logger.IsLevelEnabled(level) {
				logWriters[level] = writer
			}
		}
		if len(logWriters) > 0 {
			logger.Hooks.Add(lfshook.NewHook(logWriters, fileFormatter))
			// File logging goes through the hook; drop the default stream so
			// lines are not duplicated.
			logger.SetOutput(io.Discard)
		}
	} else {
		consoleFormatter := &Formatter{
			TimestampFormat:        "15:04:05",
			NoColors:               false,
			DisplayLevelName:       formatterDisplayLevelConfig,
			DisableCaller:          true,
			FieldsDisplayWithOrder: defaultFieldsOrder,
		}
		logger.SetFormatter(consoleFormatter)
		logger.SetOutput(os.Stdout)
	}

	Log = &ELog{
		Logger: logger,
	}
	return nil
}

// WithComponent returns an entry tagged with the originating component
// (cache, prober, executor, session, bridge).
func (el *ELog) WithComponent(component string) *logrus.Entry {
	return el.Logger.WithField(common.LogFieldComponent, component)
}

// WithOperation returns an entry tagged with the bridge operation name.
func (el *ELog) WithOperation(operation string) *logrus.Entry {
	return el.Logger.WithField(common.LogFieldOperation, operation)
}

// WithRequest returns an entry tagged with the bridge request id.
func (el *ELog) WithRequest(requestID string) *logrus.Entry {
	return el.Logger.WithField(common.LogFieldRequestID, requestID)
}
