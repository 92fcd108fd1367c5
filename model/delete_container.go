package model

// DeleteContainerRequest proposes deletion of an empty container or
// expired TTL znode. The result of the delete is unimportant to the
// submitter: a failure just means the next sweep reconsiders the path.
type DeleteContainerRequest struct {
	Path string
}

// DeleteContainerResponse reports whether the request was accepted into
// the pipeline, not whether the delete ultimately committed.
type DeleteContainerResponse struct {
	Submitted bool
	Err       string // populated only when Submitted is false
}
