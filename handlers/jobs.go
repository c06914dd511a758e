package handlers

import (
	"net/http"

	"waveclip/services"

	"github.com/gin-gonic/gin"
)

// JobHandler handles job inspection endpoints
type JobHandler struct {
	jobQueue services.JobQueue
}

// NewJobHandler creates a new job handler
func NewJobHandler(jq services.JobQueue) *JobHandler {
	return &JobHandler{
		jobQueue: jq,
	}
}

// GetJob returns a specific job by ID
func (h *JobHandler) GetJob(c *gin.Context) {
	job, exists := h.jobQueue.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// GetAllJobs returns all jobs
func (h *JobHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}
