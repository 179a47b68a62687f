// Package worker executes analysis jobs. Each job is run by exactly
// one worker; the worker owns the job's transitions and its temporary
// audio file from claim to terminal state.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"

	"melody-transcriber/core/models"
	"melody-transcriber/core/registry"
	"melody-transcriber/storage"
)

// Runner is the pipeline entry point a worker invokes per job.
// *pipeline.Pipeline satisfies it.
type Runner interface {
	AnalyzeFile(path string, params models.AnalysisParams) (*models.AnalysisResult, error)
}

// Pool runs jobs from a submission queue on a fixed set of workers.
type Pool struct {
	registry registry.Registry
	runner   Runner
	blobs    *storage.BlobStore
	jobs     chan *models.Job
	wg       sync.WaitGroup
}

// NewPool creates a pool with the given submission queue capacity.
func NewPool(reg registry.Registry, runner Runner, blobs *storage.BlobStore, queueSize int) *Pool {
	return &Pool{
		registry: reg,
		runner:   runner,
		blobs:    blobs,
		jobs:     make(chan *models.Job, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Submit enqueues a pending job. Blocks when the queue is full.
func (p *Pool) Submit(job *models.Job) {
	p.jobs <- job
}

// Stop drains the queue and waits for in-flight jobs. Once a job is
// processing it always reaches a terminal state; there is no
// cancellation.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.execute(job)
		}
	}
}

// execute claims the job, runs the pipeline and records the terminal
// state. The temp audio file is released on every exit path, success
// or failure.
func (p *Pool) execute(job *models.Job) {
	if err := p.registry.MarkProcessing(job.ID); err != nil {
		log.Printf("Failed to claim job %s: %v", job.ID, err)
		return
	}

	result, err := p.runPipeline(job)

	// Release the temp audio before the terminal transition so a
	// caller observing a terminal state never sees the file linger.
	// Runs on every branch; a missing file is not an error.
	if rmErr := p.blobs.Remove(job.AudioPath); rmErr != nil {
		log.Printf("Failed to remove temp audio for job %s: %v", job.ID, rmErr)
	}

	if err != nil {
		log.Printf("Job %s failed: %v", job.ID, err)
		if err := p.registry.MarkFailed(job.ID, fmt.Sprintf("audio analysis failed: %v", err)); err != nil {
			log.Printf("Failed to record failure for job %s: %v", job.ID, err)
		}
		return
	}

	if err := p.registry.MarkSucceeded(job.ID, result); err != nil {
		log.Printf("Failed to record result for job %s: %v", job.ID, err)
		return
	}
	log.Printf("Job %s succeeded with %d notes", job.ID, len(result.Notes))
}

// runPipeline isolates the pipeline call so a panic becomes a failed
// job instead of a crashed worker.
func (p *Pool) runPipeline(job *models.Job) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return p.runner.AnalyzeFile(job.AudioPath, job.Params)
}
