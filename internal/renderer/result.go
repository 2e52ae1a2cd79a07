package renderer

import "time"

// Placeholder scores reported by mock rendering. They are not derived from image content.
const (
	MockQualityScore = 0.85
	MockRealismScore = 0.75
)

// CompositionResult reports the outcome of one render call.
type CompositionResult struct {
	Success         bool               `json:"success"`
	CompositionID   string             `json:"composition_id"`
	OutputPath      string             `json:"output_path,omitempty"`
	Mode            string             `json:"mode"`
	ObjectPositions []ObjectDescriptor `json:"object_positions"`
	ProcessingTime  time.Duration      `json:"processing_time"`
	QualityScore    float64            `json:"quality_score"`
	RealismScore    float64            `json:"realism_score"`
	ErrorMessage    string             `json:"error_message,omitempty"`
}
