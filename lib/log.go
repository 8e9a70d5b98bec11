package lib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogDirectory = "logs"
	LogFileName  = "log"
)

/*
	This file implements the leveled logger used by every module of the pool node.
	Each line is '<time> <LEVEL>: <module> msg' with a colored level tag; output goes to stdout and
	an auto-rotating log file in the data directory unless a writer is supplied.
*/

func init() {
	color.NoColor = false
}

// LoggerI defines the interface for various logging levels and formatted output
type LoggerI interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	Print(msg string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Printf(format string, args ...interface{})
	// WithModule() returns a logger that tags every line with the module name
	WithModule(module string) LoggerI
}

const (
	DebugLevel int32 = -4
	InfoLevel  int32 = 0
	WarnLevel  int32 = 4
	ErrorLevel int32 = 8
	FatalLevel int32 = 12
)

var (
	_ LoggerI = &Logger{}

	// levelTags maps a level to its colored tag
	levelTags = map[int32]func(a ...interface{}) string{
		DebugLevel: color.New(color.FgBlue).SprintFunc(),
		InfoLevel:  color.New(color.FgGreen).SprintFunc(),
		WarnLevel:  color.New(color.FgYellow).SprintFunc(),
		ErrorLevel: color.New(color.FgRed).SprintFunc(),
		FatalLevel: color.New(color.FgRed, color.Bold).SprintFunc(),
	}
	levelNames = map[int32]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
		FatalLevel: "FATAL",
	}
	timeTag = color.New(color.FgHiBlack).SprintFunc()
)

// LoggerConfig holds configuration settings for the logger, including logging level and output writer
type LoggerConfig struct {
	Level int32 `json:"level"`
	Out   io.Writer
}

// Logger is the concrete implementation of LoggerI
type Logger struct {
	config LoggerConfig
	module string
}

func (l *Logger) Debug(msg string) { l.log(DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.log(WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.log(ErrorLevel, msg) }
func (l *Logger) Print(msg string) { l.write(msg) }

// Fatal() logs the message and terminates the program
func (l *Logger) Fatal(msg string) {
	l.log(FatalLevel, msg)
	os.Exit(1)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(DebugLevel, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(InfoLevel, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(WarnLevel, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(ErrorLevel, format, args...) }
func (l *Logger) Printf(format string, args ...interface{}) { l.write(fmt.Sprintf(format, args...)) }

// Fatalf() logs the formatted message and terminates the program
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(FatalLevel, format, args...)
	os.Exit(1)
}

// WithModule() returns a copy of the logger that prefixes every message with the module name
func (l *Logger) WithModule(module string) LoggerI {
	return &Logger{config: l.config, module: module}
}

// log() formats and writes a message if the level is enabled
func (l *Logger) log(level int32, format string, args ...interface{}) {
	if level < l.config.Level {
		return
	}
	msg := format
	if len(args) != 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if l.module != "" {
		msg = "(" + l.module + ") " + msg
	}
	// color each line separately so multi-line errors keep their color
	tag, lines := levelTags[level], strings.Split(msg, "\n")
	for i := range lines {
		lines[i] = tag(lines[i])
	}
	l.write(tag(levelNames[level]+":") + " " + strings.Join(lines, "\n"))
}

// write() outputs the log message with a timestamp to the configured writer
func (l *Logger) write(msg string) {
	line := fmt.Sprintf("%s %s\n", timeTag(time.Now().Format(time.StampMilli)), msg)
	if _, err := l.config.Out.Write([]byte(line)); err != nil {
		fmt.Println(newLogError(err))
	}
}

// NewLogger() creates a new Logger instance with the specified configuration and optional data directory path
func NewLogger(config LoggerConfig, dataDirPath ...string) LoggerI {
	if config.Out == nil {
		dir := DefaultDataDirPath()
		if len(dataDirPath) != 0 && dataDirPath[0] != "" {
			dir = dataDirPath[0]
		}
		logPath := filepath.Join(dir, LogDirectory, LogFileName)
		if _, err := os.Stat(logPath); errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(filepath.Join(dir, LogDirectory), os.ModePerm); err != nil {
				panic(err)
			}
		}
		config.Out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    1, // megabyte
			MaxBackups: 1500,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	return &Logger{config: config}
}

// NewDefaultLogger() creates a Logger with default settings, logging at the Debug level to stdout
func NewDefaultLogger() LoggerI {
	return NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   os.Stdout,
	})
}

// NewNullLogger() creates a Logger that discards all log output
func NewNullLogger() LoggerI {
	return NewLogger(LoggerConfig{
		Level: DebugLevel,
		Out:   io.Discard,
	})
}
