package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

func newFileRepo(t *testing.T, backup bool) (*SessionFileRepository, *storage.LocalStorage, string) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewSessionFileRepository(store, SessionFileConfig{BackupOnWrite: backup}, nil), store, dir
}

func TestSessionFileRepositoryMissingFilesLoadEmpty(t *testing.T) {
	repo, _, _ := newFileRepo(t, false)

	lab, theory, err := repo.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lab)
	assert.Empty(t, theory)
}

func TestSessionFileRepositoryRoundTrip(t *testing.T) {
	repo, _, dir := newFileRepo(t, false)
	lab := []models.Session{{ID: "l1", ScheduleType: models.ScheduleTypeLab, Day: "Monday", SessionName: "L1", CourseCode: "CS201"}}
	theory := []models.Session{{ID: "t1", ScheduleType: models.ScheduleTypeTheory, Day: "Monday", TimeSlot: "9:00 - 9:50", StudentCount: 40}}

	require.NoError(t, repo.SaveSessions(context.Background(), lab, theory))
	assert.FileExists(t, filepath.Join(dir, "lab.json"))
	assert.FileExists(t, filepath.Join(dir, "theory.json"))

	gotLab, gotTheory, err := repo.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lab, gotLab)
	assert.Equal(t, theory, gotTheory)
}

func TestSessionFileRepositoryBacksUpPreviousVersion(t *testing.T) {
	repo, store, _ := newFileRepo(t, true)
	ctx := context.Background()

	require.NoError(t, repo.SaveSessions(ctx, nil, []models.Session{{ID: "first"}}))
	backups, err := store.Backups("theory.json")
	require.NoError(t, err)
	assert.Empty(t, backups)

	require.NoError(t, repo.SaveSessions(ctx, nil, []models.Session{{ID: "second"}}))
	backups, err = store.Backups("theory.json")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	raw, err := store.Read(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "first")
}

func TestSessionFileRepositoryRejectsMalformedFile(t *testing.T) {
	repo, _, dir := newFileRepo(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lab.json"), []byte("{not json"), 0o644))

	_, _, err := repo.LoadSessions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode lab.json")
}
