// Package router decides how and where a generation request executes. The
// decision is a pure function of its inputs: no I/O, no hidden state, and it
// never fails; unrecognized inputs degrade to the generic template and the
// cloud backend.
package router

import (
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// GenericTemplateID is the fallback workflow template for task types without
// a dedicated graph.
const GenericTemplateID = "generic"

// lowLatencyTasks always take the fast path: a direct provider call is both
// faster and cheaper than a one-node workflow graph for plain text tasks.
func isLowLatency(task models.TaskType) bool {
	switch task {
	case models.TaskChat, models.TaskQuickText, models.TaskTranslation,
		models.TaskSummarization, models.TaskCompletion:
		return true
	default:
		return false
	}
}

// templateFor maps a task type to its workflow template id.
func templateFor(task models.TaskType) string {
	switch task {
	case models.TaskImage:
		return "t2i"
	case models.TaskImageEdit:
		return "inpaint"
	case models.TaskUpscale:
		return "upscale"
	case models.TaskVideo:
		return "t2v"
	case models.TaskVoice:
		return "tts"
	case models.TaskMusic:
		return "t2a"
	case models.TaskModel3D:
		return "t23d"
	case models.TaskSegmentation:
		return "mask"
	default:
		return GenericTemplateID
	}
}

// Route computes the execution plan for one request.
//
// Low-latency text tasks yield a fast-path plan with the provider resolved
// from the catalog and the model id passed through unchanged, regardless of
// the local preference. Every other task yields a workflow plan.
//
// Workflow targets degrade gracefully: Local only when the caller prefers
// local AND the model is local-capable AND the hardware profile satisfies its
// accelerator requirement; Hybrid when local is preferred but not possible
// (cloud generation, then local post-processing); Cloud otherwise. A local
// preference is never silently dropped to full Cloud.
func Route(
	task models.TaskType,
	modelID string,
	preferLocal bool,
	profile models.HardwareProfile,
	cat *catalog.Catalog,
) models.ExecutionPlan {
	if isLowLatency(task) {
		return models.NewFastPathPlan(cat.ProviderFor(modelID), modelID)
	}

	target := models.TargetCloud

	if preferLocal {
		if localEligible(modelID, profile, cat) {
			target = models.TargetLocal
		} else {
			target = models.TargetHybrid
		}
	}

	return models.NewWorkflowPlan(templateFor(task), target)
}

func localEligible(modelID string, profile models.HardwareProfile, cat *catalog.Catalog) bool {
	entry, ok := cat.Lookup(modelID)
	if !ok || !entry.LocalCapable {
		return false
	}

	return profile.Satisfies(entry.MinAcceleratorMemoryGB)
}
