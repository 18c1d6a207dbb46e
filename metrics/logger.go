package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

type Logger interface {
	Log(info *RunInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultQueueSize = 2000
const defaultMaxLogFileSize = 64 * 1024 * 1024
const defaultMaxLogFiles = 10

const logFileName = "runs.log"

// FileLogger appends one JSON record per run to runs.log under
// LogDir, rotating to timestamped files once the current file grows
// past MaxLogFileSize and keeping at most MaxLogFiles rotated files.
type FileLogger struct {
	RunQueue       chan *RunInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool

	done chan struct{}
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		RunQueue:       make(chan *RunInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
		done:           make(chan struct{}),
	}

	go logger.startLogWriter()

	return logger
}

func (l *FileLogger) Log(info *RunInfo) {
	l.RunQueue <- info
}

// Close drains the queue and waits until every queued record is on
// disk. Log must not be called after Close.
func (l *FileLogger) Close() {
	close(l.RunQueue)
	<-l.done
}

func (l *FileLogger) logFilePath() string {
	return path.Join(l.LogDir, logFileName)
}

func (l *FileLogger) startLogWriter() {
	defer close(l.done)
	for info := range l.RunQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger: info.ToJSON() error: %v", err)
			continue
		}

		if err := l.tryRotateLogFile(); err != nil {
			log.Printf("FileLogger: log rotation error: %v", err)
		}

		f, err := os.OpenFile(l.logFilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("FileLogger: log open error: %v", err)
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger: write error: %v", err)
		}
		f.Sync()
		f.Close()
	}
}

func (l *FileLogger) tryRotateLogFile() error {
	info, err := os.Stat(l.logFilePath())
	if err != nil || info.Size() < l.MaxLogFileSize {
		return nil
	}

	rotated := fmt.Sprintf("%s.%d", l.logFilePath(), time.Now().Unix())
	if err := os.Rename(l.logFilePath(), rotated); err != nil {
		return err
	}
	if l.Verbose {
		log.Printf("FileLogger: log file rotated: %v", rotated)
	}

	files, err := ioutil.ReadDir(l.LogDir)
	if err != nil {
		return err
	}
	var old []string
	for _, file := range files {
		if file.Mode().IsRegular() && strings.HasPrefix(file.Name(), logFileName+".") {
			old = append(old, file.Name())
		}
	}
	sort.Strings(old)
	for len(old) > l.MaxLogFiles {
		if err := os.Remove(path.Join(l.LogDir, old[0])); err != nil {
			return err
		}
		if l.Verbose {
			log.Printf("FileLogger: maximum number of log files reached, removed %s", old[0])
		}
		old = old[1:]
	}
	return nil
}
