package pipeline

// ProcessingStage is where a run currently is. Stages advance strictly
// forward; Error and Completed are terminal.
type ProcessingStage string

const (
	StageInitialized ProcessingStage = "initialized"
	StageOCR         ProcessingStage = "ocr"
	StageTranslation ProcessingStage = "translation"
	StageInpainting  ProcessingStage = "inpainting"
	StageRendering   ProcessingStage = "rendering"
	StageCompleted   ProcessingStage = "completed"
	StageError       ProcessingStage = "error"
)

// Status is one progress notification.
type Status struct {
	Stage  ProcessingStage
	Detail string
}

// ProgressFunc receives status updates during a run. It is called
// synchronously and must return quickly.
type ProgressFunc func(Status)
