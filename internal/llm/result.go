package llm

// ProviderResult records the outcome of one attempt against one provider.
// It is created once per attempt and never modified.
type ProviderResult struct {
	ProviderID string    `json:"provider_id"`
	Succeeded  bool      `json:"succeeded"`
	Payload    string    `json:"payload,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Err        error     `json:"-"`
	LatencyMs  int64     `json:"latency_ms"`
}

// Transcript is the text of a successful transcription
type Transcript struct {
	Text             string `json:"text"`
	SourceProviderID string `json:"source_provider_id"`
}

// Failures returns only the failed attempts, in order
func Failures(results []ProviderResult) []ProviderResult {
	var failed []ProviderResult
	for _, r := range results {
		if !r.Succeeded {
			failed = append(failed, r)
		}
	}
	return failed
}
