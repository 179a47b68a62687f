package worker

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
	"melody-transcriber/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeRunner struct {
	result *models.AnalysisResult
	err    error
	panics bool
}

func (f fakeRunner) AnalyzeFile(string, models.AnalysisParams) (*models.AnalysisResult, error) {
	if f.panics {
		panic("pipeline blew up")
	}
	return f.result, f.err
}

func newTestJob(t *testing.T, blobs *storage.BlobStore) *models.Job {
	t.Helper()
	path, err := blobs.Save(strings.NewReader("fake audio"), "upload-*.wav")
	assert.NoError(t, err)
	return &models.Job{
		ID:        uuid.New().String(),
		FileName:  "take1.wav",
		AudioPath: path,
		Params:    models.DefaultAnalysisParams(),
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
}

func waitTerminal(t *testing.T, reg registry.Registry, id string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := reg.Get(id)
		assert.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestPoolRunsJobToSuccess(t *testing.T) {
	assert := assert.New(t)
	reg := registry.NewMemory()
	blobs := storage.NewBlobStore(t.TempDir())
	runner := fakeRunner{result: &models.AnalysisResult{BPM: 120}}

	pool := NewPool(reg, runner, blobs, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx, 2)

	job := newTestJob(t, blobs)
	assert.NoError(reg.Create(job))
	pool.Submit(job)

	done := waitTerminal(t, reg, job.ID)
	assert.Equal(models.JobStatusSucceeded, done.Status)
	assert.Equal(120.0, done.Result.BPM)

	// Temp audio is gone after the terminal transition.
	_, err := os.Stat(job.AudioPath)
	assert.True(os.IsNotExist(err))

	// Repeated polls return the same payload.
	again, err := reg.Get(job.ID)
	assert.NoError(err)
	assert.Equal(done.Result, again.Result)
}

func TestPoolRecordsFailureAndCleansUp(t *testing.T) {
	assert := assert.New(t)
	reg := registry.NewMemory()
	blobs := storage.NewBlobStore(t.TempDir())
	runner := fakeRunner{err: errors.New("input too short")}

	pool := NewPool(reg, runner, blobs, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx, 1)

	job := newTestJob(t, blobs)
	assert.NoError(reg.Create(job))
	pool.Submit(job)

	done := waitTerminal(t, reg, job.ID)
	assert.Equal(models.JobStatusFailed, done.Status)
	assert.Contains(done.Error, "input too short")
	assert.Nil(done.Result)

	_, err := os.Stat(job.AudioPath)
	assert.True(os.IsNotExist(err))
}

func TestPoolSurvivesPipelinePanic(t *testing.T) {
	assert := assert.New(t)
	reg := registry.NewMemory()
	blobs := storage.NewBlobStore(t.TempDir())

	pool := NewPool(reg, fakeRunner{panics: true}, blobs, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx, 1)

	job := newTestJob(t, blobs)
	assert.NoError(reg.Create(job))
	pool.Submit(job)

	done := waitTerminal(t, reg, job.ID)
	assert.Equal(models.JobStatusFailed, done.Status)
	assert.Contains(done.Error, "pipeline panic")

	_, err := os.Stat(job.AudioPath)
	assert.True(os.IsNotExist(err))

	// The worker is still alive and picks up the next job.
	second := newTestJob(t, blobs)
	assert.NoError(reg.Create(second))
	pool.Submit(second)
	waitTerminal(t, reg, second.ID)
}

func TestPoolStopWaitsForInflightJobs(t *testing.T) {
	assert := assert.New(t)
	reg := registry.NewMemory()
	blobs := storage.NewBlobStore(t.TempDir())
	runner := fakeRunner{result: &models.AnalysisResult{BPM: 90}}

	pool := NewPool(reg, runner, blobs, 8)
	pool.Start(context.Background(), 3)

	var ids []string
	for i := 0; i < 6; i++ {
		job := newTestJob(t, blobs)
		assert.NoError(reg.Create(job))
		pool.Submit(job)
		ids = append(ids, job.ID)
	}
	pool.Stop()

	for _, id := range ids {
		job, err := reg.Get(id)
		assert.NoError(err)
		assert.Equal(models.JobStatusSucceeded, job.Status)
	}
}
