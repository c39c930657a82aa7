package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StorageDriverFile, cfg.Timetable.StorageDriver)
	assert.Equal(t, "lab.json", cfg.Timetable.LabFile)
	assert.Equal(t, "theory.json", cfg.Timetable.TheoryFile)
	assert.Equal(t, 35, cfg.Timetable.DefaultRoomCapacity)
	assert.True(t, cfg.Timetable.BackupOnWrite)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SummaryTTL)
	assert.Equal(t, 3, cfg.Persist.Retries)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TIMETABLE_STORAGE_DRIVER", " Postgres ")
	v.Set("SUMMARY_CACHE_TTL", "90s")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, StorageDriverPostgres, cfg.Timetable.StorageDriver)
	assert.Equal(t, 90*time.Second, cfg.Cache.SummaryTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestUnknownDriverFallsBackToFile(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TIMETABLE_STORAGE_DRIVER", "mongo")

	assert.Equal(t, StorageDriverFile, fromViper(v).Timetable.StorageDriver)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
