package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"waveclip/audio"
	"waveclip/types"
	"waveclip/websocket"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// JobQueue interface defines the methods for managing decode/export jobs
type JobQueue interface {
	Start()
	EnqueueDecode(session *Session, path, filename, format string) *types.Job
	EnqueueExport(session *Session) *types.Job
	GetJob(id string) (*types.Job, bool)
	GetAllJobs() []*types.Job
}

// task pairs a wire-level job with the internal context its worker needs
type task struct {
	job      *types.Job
	session  *Session
	gen      int    // decode: load generation captured at enqueue time
	path     string // decode: uploaded temp file, removed after processing
	filename string // decode: original upload name
	format   string // decode: detected format
}

// jobQueue runs decode and export jobs on a small worker pool
type jobQueue struct {
	jobs       map[string]*types.Job
	queue      chan *task
	mu         sync.RWMutex
	maxWorkers int
	hub        websocket.Hub
	ffmpegPath string
}

// NewJobQueue creates a new job queue
func NewJobQueue(maxWorkers int, hub websocket.Hub, ffmpegPath string) JobQueue {
	return &jobQueue{
		jobs:       make(map[string]*types.Job),
		queue:      make(chan *task, 100), // Buffer for 100 jobs
		maxWorkers: maxWorkers,
		hub:        hub,
		ffmpegPath: ffmpegPath,
	}
}

// EnqueueDecode queues decoding of an uploaded file into a session. The
// load generation is captured now, so a later upload supersedes this one
// even if it is still waiting in the queue.
func (jq *jobQueue) EnqueueDecode(session *Session, path, filename, format string) *types.Job {
	job := jq.newJob(types.JobTypeDecode, session.ID)
	job.Filename = filename

	jq.enqueue(&task{
		job:      job,
		session:  session,
		gen:      session.BeginLoad(),
		path:     path,
		filename: filename,
		format:   format,
	})
	return job
}

// EnqueueExport queues trimming and serializing the session's current
// selection into a new clip.
func (jq *jobQueue) EnqueueExport(session *Session) *types.Job {
	job := jq.newJob(types.JobTypeExport, session.ID)
	jq.enqueue(&task{job: job, session: session})
	return job
}

func (jq *jobQueue) newJob(jobType types.JobType, sessionID string) *types.Job {
	return &types.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    types.JobStatusQueued,
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
}

func (jq *jobQueue) enqueue(t *task) {
	jq.mu.Lock()
	jq.jobs[t.job.ID] = t.job
	jq.mu.Unlock()
	jq.queue <- t
}

// GetJob retrieves a job by ID
func (jq *jobQueue) GetJob(id string) (*types.Job, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	return job, exists
}

// GetAllJobs returns all jobs
func (jq *jobQueue) GetAllJobs() []*types.Job {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.Job, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// setJobStatus updates job status and broadcasts it to the session's clients
func (jq *jobQueue) setJobStatus(t *task, status types.JobStatus, errorMsg string) {
	jq.mu.Lock()
	job := t.job
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
	} else if status == types.JobStatusCompleted || status == types.JobStatusFailed || status == types.JobStatusCancelled {
		job.CompletedAt = &now
	}
	jq.mu.Unlock()

	if jq.hub == nil {
		return
	}

	msgType := "status"
	message := string(status)
	switch status {
	case types.JobStatusCompleted:
		msgType = "complete"
		if job.Type == types.JobTypeDecode {
			message = fmt.Sprintf("%s decoded", job.Filename)
		} else {
			message = "clip exported"
		}
	case types.JobStatusFailed:
		msgType = "error"
		message = errorMsg
	}

	jq.hub.Broadcast(types.SessionMessage{
		SessionID: job.SessionID,
		Type:      msgType,
		Job:       job,
		Message:   message,
		Timestamp: now,
	})
}

// broadcastState pushes a fresh session snapshot, optionally with the clip a
// job just produced.
func (jq *jobQueue) broadcastState(t *task, clip *Clip) {
	if jq.hub == nil {
		return
	}

	state := t.session.Snapshot()
	msg := types.SessionMessage{
		SessionID: t.session.ID,
		Type:      "state",
		State:     &state,
		Timestamp: time.Now(),
	}
	if clip != nil {
		info := clip.Info()
		msg.Clip = &info
	}
	jq.hub.Broadcast(msg)
}

// Start begins processing jobs
func (jq *jobQueue) Start() {
	for i := 0; i < jq.maxWorkers; i++ {
		go jq.worker()
	}
}

// worker processes jobs from the queue
func (jq *jobQueue) worker() {
	for t := range jq.queue {
		jq.setJobStatus(t, types.JobStatusProcessing, "")

		var err error
		switch t.job.Type {
		case types.JobTypeDecode:
			err = jq.processDecode(t)
		case types.JobTypeExport:
			err = jq.processExport(t)
		}

		if err == errSuperseded {
			jq.setJobStatus(t, types.JobStatusCancelled, "")
			log.Printf("Job %s superseded by a newer upload", t.job.ID)
		} else if err != nil {
			jq.setJobStatus(t, types.JobStatusFailed, err.Error())
			log.Printf("Job %s failed: %v", t.job.ID, err)
		} else {
			jq.setJobStatus(t, types.JobStatusCompleted, "")
			log.Printf("Job %s completed successfully", t.job.ID)
		}
	}
}

// errSuperseded marks a decode whose session received a newer upload while
// the job was queued or running. Not a user-visible failure.
var errSuperseded = fmt.Errorf("superseded")

// processDecode decodes an uploaded file and installs it into the session.
// The source appears fully populated or not at all: nothing is touched on
// failure, and a stale generation's result is dropped.
func (jq *jobQueue) processDecode(t *task) error {
	defer os.Remove(t.path)

	decoder := audio.DecoderFor(t.format, jq.ffmpegPath)
	src, err := decoder.DecodeFile(t.path)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", t.filename, err)
	}

	if !t.session.CompleteLoad(t.gen, src, displayName(t.path, t.filename)) {
		return errSuperseded
	}

	jq.broadcastState(t, nil)
	return nil
}

// processExport trims the current selection into a new clip
func (jq *jobQueue) processExport(t *task) error {
	clip, err := t.session.Export()
	if err != nil {
		return fmt.Errorf("failed to export clip: %w", err)
	}

	jq.mu.Lock()
	t.job.ClipID = clip.ID
	jq.mu.Unlock()

	jq.broadcastState(t, clip)
	return nil
}

// trackNumberPrefix matches filename prefixes like "01 - " or "1. "
var trackNumberPrefix = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// displayName extracts a session display name from the uploaded file's tag
// metadata, falling back to a cleaned-up filename.
func displayName(path, filename string) string {
	if file, err := os.Open(path); err == nil {
		defer file.Close()
		if meta, err := tag.ReadFrom(file); err == nil && meta.Title() != "" {
			return meta.Title()
		}
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if matches := trackNumberPrefix.FindStringSubmatch(name); len(matches) > 2 {
		name = matches[2]
	}
	if name == "" {
		name = "Untitled"
	}
	return name
}
