package domain

import "context"

// AnalyzeRequest is the normalized input to the Analyzer capability.
type AnalyzeRequest struct {
	ImageBytes []byte
	RequestID  string
}

// Analyzer is the vision capability: image bytes in, a normalized analysis record out.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error)
}

// SynthesizeRequest is the normalized input to the ImageSynthesizer capability.
type SynthesizeRequest struct {
	Prompt      string
	Width       int
	Height      int
	RequestID   string
	Seed        string
}

// ImageSynthesizer is the image-generation capability.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (ImageAsset, error)
}

// TextSubTask identifies which slice of the text bundle a TextSynthesizer
// call is being asked to produce. The Texts stage runs all three
// concurrently and assembles one bundle from the partial results.
type TextSubTask string

const (
	SubTaskDescription TextSubTask = "description"
	SubTaskCatchcopy    TextSubTask = "catchcopy"
	SubTaskSEO          TextSubTask = "seo"
)

// TextContext is the structured input to the TextSynthesizer capability.
type TextContext struct {
	Analysis    Analysis
	BrandName   string
	ProductName string
	Tone        string
	Language    string
	RequestID   string
	SubTask     TextSubTask
}

// TextSynthesizer is the marketing-copy generation capability. A single call
// produces only the fields of TextBundle relevant to tctx.SubTask; every
// other field is left zero. The executor's Texts stage assembles the full
// bundle from three such partial results.
type TextSynthesizer interface {
	SynthesizeText(ctx context.Context, tctx TextContext) (TextBundle, error)
}
