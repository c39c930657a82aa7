package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Exists(filename string) bool
	Backup(filename string) (string, error)
}

// SessionFileConfig names the files holding each schedule type.
type SessionFileConfig struct {
	LabFile       string
	TheoryFile    string
	BackupOnWrite bool
}

// SessionFileRepository keeps the timetable as two JSON arrays on disk.
type SessionFileRepository struct {
	store  fileStore
	cfg    SessionFileConfig
	logger *zap.Logger
}

// NewSessionFileRepository constructs the file backed repository.
func NewSessionFileRepository(store fileStore, cfg SessionFileConfig, logger *zap.Logger) *SessionFileRepository {
	if cfg.LabFile == "" {
		cfg.LabFile = "lab.json"
	}
	if cfg.TheoryFile == "" {
		cfg.TheoryFile = "theory.json"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionFileRepository{store: store, cfg: cfg, logger: logger}
}

// LoadSessions reads both files. A missing file yields an empty list.
func (r *SessionFileRepository) LoadSessions(ctx context.Context) ([]models.Session, []models.Session, error) {
	lab, err := r.read(r.cfg.LabFile)
	if err != nil {
		return nil, nil, err
	}
	theory, err := r.read(r.cfg.TheoryFile)
	if err != nil {
		return nil, nil, err
	}
	return lab, theory, nil
}

// SaveSessions writes both files, backing up the previous versions when configured.
func (r *SessionFileRepository) SaveSessions(ctx context.Context, lab []models.Session, theory []models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.write(r.cfg.LabFile, lab); err != nil {
		return err
	}
	return r.write(r.cfg.TheoryFile, theory)
}

func (r *SessionFileRepository) read(name string) ([]models.Session, error) {
	if !r.store.Exists(name) {
		r.logger.Warn("timetable file missing, starting empty", zap.String("file", name))
		return []models.Session{}, nil
	}
	raw, err := r.store.Read(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	sessions := make([]models.Session, 0)
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return sessions, nil
}

func (r *SessionFileRepository) write(name string, sessions []models.Session) error {
	if sessions == nil {
		sessions = []models.Session{}
	}
	if r.cfg.BackupOnWrite {
		backup, err := r.store.Backup(name)
		if err != nil {
			return fmt.Errorf("backup %s: %w", name, err)
		}
		if backup != "" {
			r.logger.Info("timetable backup written", zap.String("file", name), zap.String("backup", backup))
		}
	}
	payload, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if _, err := r.store.Save(name, payload); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
