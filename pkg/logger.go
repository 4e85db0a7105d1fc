package pkg

import (
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelDebug
)

var (
	info_logger  = log.New(os.Stdout, "INFO: ", log.Lshortfile|log.LstdFlags)
	warn_logger  = log.New(os.Stdout, "WARN: ", log.Lshortfile|log.LstdFlags)
	debug_logger = log.New(os.Stdout, "DEBUG: ", log.Lshortfile|log.LstdFlags)
	error_logger = log.New(os.Stderr, "ERROR: ", log.Lshortfile|log.LstdFlags)
	fatal_logger = log.New(os.Stderr, "FATAL: ", log.Lshortfile|log.LstdFlags)
)

func SetLogLevel(level LogLevel) {
	switch level {
	case LogLevelNone:
		for _, l := range []*log.Logger{info_logger, warn_logger, debug_logger, error_logger, fatal_logger} {
			l.SetOutput(io.Discard)
		}
	case LogLevelErrOnly:
		for _, l := range []*log.Logger{info_logger, warn_logger, debug_logger} {
			l.SetOutput(io.Discard)
		}
		error_logger.SetOutput(os.Stderr)
		fatal_logger.SetOutput(os.Stderr)
	case LogLevelDebug:
		info_logger.SetOutput(os.Stdout)
		warn_logger.SetOutput(os.Stdout)
		debug_logger.SetOutput(os.Stdout)
		error_logger.SetOutput(os.Stderr)
		fatal_logger.SetOutput(os.Stderr)
	}
}

var (
	InfoLog  = info_logger.Println
	WarnLog  = warn_logger.Println
	DebugLog = debug_logger.Println
	ErrorLog = error_logger.Println
	FatalLog = fatal_logger.Fatalln
)
