package models

import "fmt"

// PlanKind discriminates the two execution paths a request can take.
type PlanKind string

const (
	// PlanFastPath is a direct single-call execution that bypasses the
	// workflow graph; used for low-latency text tasks.
	PlanFastPath PlanKind = "fast_path"
	// PlanWorkflow executes an instantiated node graph on a backend driver.
	PlanWorkflow PlanKind = "workflow"
)

// ExecutionTarget says where a workflow plan executes.
type ExecutionTarget string

const (
	TargetLocal ExecutionTarget = "local"
	TargetCloud ExecutionTarget = "cloud"
	// TargetHybrid runs cloud generation first, then local post-processing.
	// It is the degrade path when the caller prefers local execution but the
	// model cannot run on this machine.
	TargetHybrid ExecutionTarget = "hybrid"
)

// FastPathPlan carries the resolved provider for a direct call. The model id
// is passed through unchanged from the request.
type FastPathPlan struct {
	Provider Provider `json:"provider"`
	ModelID  string   `json:"model_id"`
}

// WorkflowPlan names the template to instantiate and the backend target.
type WorkflowPlan struct {
	TemplateID string          `json:"template_id"`
	Target     ExecutionTarget `json:"target"`
}

// ExecutionPlan is the routing decision for one request. It is derived purely
// from its inputs, never persisted, and exactly one of the branch fields is
// set according to Kind.
type ExecutionPlan struct {
	Kind     PlanKind      `json:"kind"`
	FastPath *FastPathPlan `json:"fast_path,omitempty"`
	Workflow *WorkflowPlan `json:"workflow,omitempty"`
}

func NewFastPathPlan(provider Provider, modelID string) ExecutionPlan {
	return ExecutionPlan{
		Kind:     PlanFastPath,
		FastPath: &FastPathPlan{Provider: provider, ModelID: modelID},
	}
}

func NewWorkflowPlan(templateID string, target ExecutionTarget) ExecutionPlan {
	return ExecutionPlan{
		Kind:     PlanWorkflow,
		Workflow: &WorkflowPlan{TemplateID: templateID, Target: target},
	}
}

func (p ExecutionPlan) String() string {
	switch p.Kind {
	case PlanFastPath:
		return fmt.Sprintf("fast_path provider=%s model=%s", p.FastPath.Provider, p.FastPath.ModelID)
	case PlanWorkflow:
		return fmt.Sprintf("workflow template=%s target=%s", p.Workflow.TemplateID, p.Workflow.Target)
	default:
		return string(p.Kind)
	}
}
