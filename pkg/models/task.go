// Package models defines the core domain models for generation-job routing
// and execution.
package models

import "strings"

// TaskType is the closed set of generation task kinds the system routes.
// Raw task strings are parsed exactly once at the boundary; everything
// downstream switches on this type.
type TaskType string

const (
	TaskChat          TaskType = "chat"
	TaskQuickText     TaskType = "quick_text"
	TaskTranslation   TaskType = "translation"
	TaskSummarization TaskType = "summarization"
	TaskCompletion    TaskType = "completion"
	TaskImage         TaskType = "image"
	TaskImageEdit     TaskType = "image_edit"
	TaskUpscale       TaskType = "upscale"
	TaskVideo         TaskType = "video"
	TaskVoice         TaskType = "voice"
	TaskMusic         TaskType = "music"
	TaskModel3D       TaskType = "model3d"
	TaskSegmentation  TaskType = "segmentation"

	// TaskUnknown covers every unrecognized task string. Unknown tasks are
	// still routable; they degrade to the generic workflow template.
	TaskUnknown TaskType = "unknown"
)

var taskAliases = map[string]TaskType{
	"chat":          TaskChat,
	"quick_text":    TaskQuickText,
	"quicktext":     TaskQuickText,
	"translation":   TaskTranslation,
	"translate":     TaskTranslation,
	"summarization": TaskSummarization,
	"summarize":     TaskSummarization,
	"completion":    TaskCompletion,
	"image":         TaskImage,
	"image_edit":    TaskImageEdit,
	"inpaint":       TaskImageEdit,
	"upscale":       TaskUpscale,
	"video":         TaskVideo,
	"voice":         TaskVoice,
	"tts":           TaskVoice,
	"music":         TaskMusic,
	"sfx":           TaskMusic,
	"model3d":       TaskModel3D,
	"3d":            TaskModel3D,
	"segmentation":  TaskSegmentation,
	"segment":       TaskSegmentation,
}

// ParseTaskType maps a raw task string to its TaskType. It never fails:
// unrecognized strings return TaskUnknown so that routing can degrade to the
// generic template instead of rejecting the request.
func ParseTaskType(raw string) TaskType {
	if task, ok := taskAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return task
	}

	return TaskUnknown
}

func (t TaskType) String() string {
	return string(t)
}
