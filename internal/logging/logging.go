package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Setup points the standard logger at <dir>/log_YYYY-MM-DD.log. When the
// directory cannot be used the logger stays on stderr and the error is
// returned so the caller can report it.
func Setup(dir string) (*os.File, error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	return file, nil
}

func Info(msg string, args ...interface{}) {
	log.Output(2, fmt.Sprintf("[INFO] "+msg, args...))
}

func Error(msg string, args ...interface{}) {
	log.Output(2, fmt.Sprintf("[ERROR] "+msg, args...))
}

func Debug(msg string, args ...interface{}) {
	log.Output(2, fmt.Sprintf("[DEBUG] "+msg, args...))
}

func Event(msg string, args ...interface{}) {
	log.Output(2, fmt.Sprintf("[EVENT] "+msg, args...))
}
