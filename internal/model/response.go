package model

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// PostsResponse is the JSON view of one fetch cache entry.
type PostsResponse struct {
	Target        string   `json:"target"`
	State         string   `json:"state"`
	LogicalStatus string   `json:"logical_status,omitempty"`
	Payload       *Payload `json:"payload"`
}
