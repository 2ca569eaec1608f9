package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	sharedConfig "cdrcgi/internal/shared/config"
)

var (
	defaultLogger *slog.Logger
	atomicLevel   *slog.LevelVar
	logDir        string

	endpointMu      sync.Mutex
	endpointLoggers = map[string]*slog.Logger{}
)

// Init configures the process-wide logger. Warn and error records carry
// source location; debug and info stay terse.
func Init(cfg *sharedConfig.LoggerConfig) error {
	atomicLevel = new(slog.LevelVar)
	atomicLevel.Set(parseLevel(cfg.Level))

	var writer io.Writer
	switch strings.ToLower(cfg.OutputPath) {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writer = file
	}

	defaultLogger = slog.New(newHandler(writer, cfg.Format, atomicLevel))
	slog.SetDefault(defaultLogger)
	logDir = cfg.Directory

	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(writer io.Writer, format string, level slog.Leveler) slog.Handler {
	sourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}

	if format == "json" {
		base := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
		return NewConditionalSourceHandler(base, sourceLevels...)
	}

	base := tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(writer),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
	return NewConditionalSourceHandler(base, sourceLevels...)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func SetLevel(level slog.Level) {
	if atomicLevel != nil {
		atomicLevel.Set(level)
	}
}

func Get() *slog.Logger {
	if defaultLogger == nil {
		base := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.DateTime,
			NoColor:    !term.IsTerminal(int(os.Stdout.Fd())),
		})
		defaultLogger = slog.New(NewConditionalSourceHandler(base, slog.LevelWarn, slog.LevelError))
		slog.SetDefault(defaultLogger)
	}
	return defaultLogger
}

// Endpoint returns a logger tagged with the endpoint name that also
// appends to <directory>/<name>.log when a log directory is configured.
// Sibling processes may share the file; whole-line interleaving is fine.
func Endpoint(name string) *slog.Logger {
	endpointMu.Lock()
	defer endpointMu.Unlock()

	if l, ok := endpointLoggers[name]; ok {
		return l
	}

	l := Get().With("endpoint", name)
	if logDir != "" {
		path := filepath.Join(logDir, name+".log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			Get().Warn("cannot open endpoint log file", "path", path, "error", err)
		} else {
			fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: atomicLevel})
			l = slog.New(newTeeHandler(Get().Handler(), fileHandler)).With("endpoint", name)
		}
	}
	endpointLoggers[name] = l
	return l
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}
