package port

// ProgressFunc is called after each file a host adapter handles.
type ProgressFunc func(processed, total int, currentFile string)
