package utilities

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sentry-link/internal/link"
	"sentry-link/internal/radio"
)

// CreateLog agrega una línea al archivo diario dir/<prefix>_YYYYMMDD.log.
func CreateLog(dir, prefix, message string, now time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creando carpeta de logs: %w", err)
	}
	filename := filepath.Join(dir, prefix+"_"+now.Format("20060102")+".log")

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("abriendo log: %w", err)
	}
	defer f.Close()

	logLine := now.Format("15:04:05.000") + " - " + message + "\n"
	if _, err := f.WriteString(logLine); err != nil {
		return fmt.Errorf("escribiendo log: %w", err)
	}
	return nil
}

// Journal implementa link.Tap: cada frame queda en el archivo diario
// FRAMES, con canal y resultado.
type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
	lg  *slog.Logger
}

func NewJournal(dir string, lg *slog.Logger) *Journal {
	return &Journal{dir: dir, now: time.Now, lg: lg.With("component", "journal")}
}

func (j *Journal) Tap(ch radio.Channel, data []byte, outcome link.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	line := fmt.Sprintf("%s %s %d %s", ch, outcome, len(data), data)
	if err := CreateLog(j.dir, "FRAMES", line, j.now()); err != nil {
		j.lg.Warn("journal write failed", "err", err)
	}
}
