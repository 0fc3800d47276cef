package logger

import (
	"fmt"
	"log/slog"
	"os"
	"paygate/api/internal/config"
	"runtime"
	"strconv"

	"github.com/golang-cz/devslog"
	"github.com/google/uuid"
)

type Logger struct {
	log *slog.Logger
}

func Init(config *config.Config) Logger {
	slogOpts := &slog.HandlerOptions{}

	if !config.Prod_env {
		slogOpts.Level = slog.LevelDebug
	}

	// new logger with options
	opts := &devslog.Options{
		HandlerOptions:    slogOpts,
		MaxSlicePrintSize: 4,
		SortKeys:          true,
		NewLineAfterLog:   true,
	}

	logger := slog.New(devslog.NewHandler(os.Stdout, opts))

	slog.SetDefault(logger)

	return Logger{logger}
}

// example Info("new invoice", LS_INVOICES, false, "invoice_id", id)
func (l Logger) Info(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.emit(LL_INFO, message, logStream, isTemplate, args...)
}

// example Error("allocate failed", LS_INVOICES, false, "error", err.Error())
func (l Logger) Error(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.emit(LL_ERROR, message, logStream, isTemplate, args...)
}

// example Fatal("db gone", LS_FATAL, false, "error", err.Error())
func (l Logger) Fatal(message string, logStream Logstream, isTemplate bool, args ...any) {
	l.emit(LL_FATAL, message, logStream, isTemplate, args...)
}

func (l Logger) Debug(message string, args ...any) {
	_, file, line, _ := runtime.Caller(1)
	printLog(LL_DEBUG, message, file, line, args...)
}

func (l Logger) emit(ll LogLevel, message string, logStream Logstream, isTemplate bool, args ...any) {
	var skip int
	if isTemplate {
		skip = 3
	} else {
		skip = 2
	}

	_, file, line, _ := runtime.Caller(skip)

	args = append(args, "stream", logStream.ToString())
	printLog(ll, message, file, line, args...)
}

func printLog(ll LogLevel, message string, file string, line int, args ...any) {
	args = append(args, "source", file+":"+strconv.Itoa(line))
	switch ll {
	case LL_ERROR:
		slog.Error(message, args...)
	case LL_INFO:
		slog.Info(message, args...)
	case LL_FATAL:
		slog.Error(message, args...)
	case LL_DEBUG:
		slog.Debug(message, args...)
	}

}

func AnyToStr(t any) string {
	return fmt.Sprintf("%v", t)
}

func GenErrorId() string {
	var errorId string
	uuid, err := uuid.NewRandom()
	if err != nil {
		errorId = NA
	} else {
		errorId = uuid.String()
	}
	return errorId
}
