package models

// PushRequest is the wire form of a document upload. Length duplicates the
// slice length so the server can reject truncated payloads.
type PushRequest struct {
	Documents []Document `json:"documents"`
	Length    int        `json:"length"`
}

// PullResponse is the wire form of a document download.
type PullResponse struct {
	Documents []Document `json:"documents"`
}
