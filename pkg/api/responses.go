package api

// EnqueueResponse is returned by POST /api/v1/sessions/:id/enqueue.
type EnqueueResponse struct {
	Status    string `json:"status"`
	QueueSize int    `json:"queue_size"`
}

// SavedResponse is returned by agent and skill save endpoints.
type SavedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
