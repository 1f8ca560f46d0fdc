package domain

// ResultRecord is the uniform outcome of one source's fetch.
// Exactly one of Data and Error is populated: a failed fetch carries a
// human-readable error and nil data, a successful one the reverse.
type ResultRecord struct {
	// SourceID is the stable identity of the source within a batch.
	SourceID string `json:"sourceId"`

	// SourceName is the display name for the source.
	SourceName string `json:"sourceName"`

	// Data is the parsed fetch result. Nil on failure.
	Data any `json:"data"`

	// Error describes the failure, when there was one.
	Error string `json:"error,omitempty"`
}

// OK reports whether the fetch succeeded.
func (r *ResultRecord) OK() bool {
	return r.Error == ""
}

// Failure builds a failed record for the given identity.
func Failure(sourceID, sourceName string, err error) ResultRecord {
	return ResultRecord{
		SourceID:   sourceID,
		SourceName: sourceName,
		Error:      err.Error(),
	}
}
