// Package pipeline runs a call analysis end to end.
//
// A run threads one PipelineState through three fixed stages:
//
//	purpose -> failure_reason -> action_plan
//
// Each stage returns a delta that is merged into the state before the next
// stage starts. The model that answered a stage is tried first by the next
// one. Any stage error aborts the run; there is no orchestration-level retry
// and no partial result.
//
// Failures observed along the way (malformed model output, skipped
// candidates, aborted stages) are written to a storage.DiagnosticStore for
// operators.
package pipeline
