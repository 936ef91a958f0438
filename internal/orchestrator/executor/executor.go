// Package executor drives the stage DAG for one admitted job:
// a sequential Analysis gate followed by a best-effort fan-out of
// Packages, Ads, and Texts. Packages and Ads are each paced by a small
// concurrency cap and inter-chunk pause to respect upstream rate limits;
// Texts runs its three sub-generations at once.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/adapters"
	"adgen/internal/orchestrator/bundle"
	"adgen/internal/orchestrator/domain"
)

// Store is the subset of store.Store the executor depends on. Declaring it
// here (rather than importing the store package's concrete type) keeps the
// dependency direction pointing from executor -> store, matching how the
// rest of this package tree only ever depends downward.
type Store interface {
	UpdateStatus(id string, status domain.Status) error
	UpdateStage(id string, stage domain.Stage, status domain.StageStatus) error
	SetError(id, message string) error
	MergeResult(id string, patch domain.Result) error
}

// Pacing controls the rate-limit-friendly concurrency inside the Packages
// and Ads branches.
type Pacing struct {
	IntraBranchConcurrency int
	InterChunkPause        time.Duration
}

// Executor runs the pipeline for individual jobs against a shared StageAdapter.
type Executor struct {
	adapter *adapters.StageAdapter
	store   Store
	pacing  Pacing
	log     zerolog.Logger
}

// New constructs an Executor.
func New(adapter *adapters.StageAdapter, store Store, pacing Pacing, log zerolog.Logger) *Executor {
	if pacing.IntraBranchConcurrency <= 0 {
		pacing.IntraBranchConcurrency = 2
	}
	return &Executor{adapter: adapter, store: store, pacing: pacing, log: log}
}

// Run executes job's full DAG. It is meant to be launched in its own
// goroutine by the Scheduler/Orchestrator; ctx governs cancellation of every
// suspension point the executor touches.
func (e *Executor) Run(ctx context.Context, job domain.Job, imageBytes []byte) {
	e.log.Info().Str("job_id", job.ID).Msg("executor: starting job")

	if err := e.store.UpdateStatus(job.ID, domain.StatusProcessing); err != nil {
		e.log.Warn().Str("job_id", job.ID).Err(err).Msg("executor: job vanished before start")
		return
	}

	analysis, err := e.runAnalysis(ctx, job, imageBytes)
	if err != nil {
		e.failJob(job.ID, err)
		return
	}

	var wg sync.WaitGroup
	for _, stage := range []domain.Stage{domain.StagePackages, domain.StageAds, domain.StageTexts} {
		if job.Options.StageSkipped(stage) {
			continue
		}
		stage := stage
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runBranch(ctx, job, stage, analysis)
		}()
	}
	wg.Wait()

	e.completeJob(ctx, job.ID)
}

func (e *Executor) runAnalysis(ctx context.Context, job domain.Job, imageBytes []byte) (domain.Analysis, error) {
	if err := e.store.UpdateStage(job.ID, domain.StageAnalysis, domain.StageStatusProcessing); err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := e.adapter.Analyze(ctx, domain.AnalyzeRequest{ImageBytes: imageBytes, RequestID: job.ID})
	if err != nil {
		e.store.UpdateStage(job.ID, domain.StageAnalysis, domain.StageStatusFailed)
		return domain.Analysis{}, err
	}

	e.store.UpdateStage(job.ID, domain.StageAnalysis, domain.StageStatusDone)
	e.store.MergeResult(job.ID, domain.Result{Analysis: &analysis})
	return analysis, nil
}

// failJob records the analysis error as the job's terminal failure. Status
// Failed always implies the analysis stage itself ended in Failed, which
// runAnalysis has already recorded before returning an error.
func (e *Executor) failJob(id string, err error) {
	e.store.SetError(id, errMessage(err))
	e.store.UpdateStatus(id, domain.StatusFailed)
	e.log.Warn().Str("job_id", id).Err(err).Msg("executor: analysis failed, job failed")
}

func (e *Executor) completeJob(ctx context.Context, id string) {
	if ctx.Err() != nil {
		e.store.SetError(id, "job cancelled")
		e.store.UpdateStatus(id, domain.StatusFailed)
		e.log.Info().Str("job_id", id).Msg("executor: job cancelled during fan-out")
		return
	}
	e.store.MergeResult(id, domain.Result{DownloadURL: bundle.DownloadURL(id)})
	e.store.UpdateStatus(id, domain.StatusCompleted)
	e.log.Info().Str("job_id", id).Msg("executor: job completed")
}

func (e *Executor) runBranch(ctx context.Context, job domain.Job, stage domain.Stage, analysis domain.Analysis) {
	if err := e.store.UpdateStage(job.ID, stage, domain.StageStatusProcessing); err != nil {
		return
	}

	var (
		patch domain.Result
		err   error
	)
	switch stage {
	case domain.StagePackages:
		patch, err = e.runPackages(ctx, job, analysis)
	case domain.StageAds:
		patch, err = e.runAds(ctx, job, analysis)
	case domain.StageTexts:
		patch, err = e.runTexts(ctx, job, analysis)
	}

	if err != nil {
		e.store.UpdateStage(job.ID, stage, domain.StageStatusFailed)
		e.log.Warn().Str("job_id", job.ID).Str("stage", string(stage)).Err(err).Msg("executor: stage failed, job continues best-effort")
		return
	}
	// Mark the stage Done before the Result patch lands, so a concurrent
	// GetStatus poll never observes a populated Result field for a stage
	// that still reads Processing.
	e.store.UpdateStage(job.ID, stage, domain.StageStatusDone)
	e.store.MergeResult(job.ID, patch)
}

var packageStyles = []string{"minimalist", "vibrant", "premium"}

func (e *Executor) runPackages(ctx context.Context, job domain.Job, analysis domain.Analysis) (domain.Result, error) {
	n := job.Options.Variations()

	type indexed struct {
		index int
		pkg   domain.Package
	}

	results, err := runChunked(ctx, e.pacing, n, func(ctx context.Context, i int) (indexed, error) {
		style := packageStyles[i%len(packageStyles)]
		template := selectTemplate(analysis)
		prompt := fmt.Sprintf("%s package design, %s style, template %s, category %s", productLabel(job.Options), style, template, analysis.Category)

		asset, err := e.adapter.SynthesizeImage(ctx, domain.SynthesizeRequest{
			Prompt:    prompt,
			Width:     1024,
			Height:    1024,
			RequestID: fmt.Sprintf("%s-package-%d", job.ID, i),
		})
		if err != nil {
			return indexed{}, err
		}
		return indexed{index: i, pkg: domain.Package{VariationType: style, Template: template, Image: asset}}, nil
	})
	if err != nil {
		return domain.Result{}, err
	}

	packages := make([]domain.Package, len(results))
	for _, r := range results {
		packages[r.index] = r.pkg
	}
	return domain.Result{Packages: packages}, nil
}

func (e *Executor) runAds(ctx context.Context, job domain.Job, analysis domain.Analysis) (domain.Result, error) {
	platforms := job.Options.AdPlatforms
	if len(platforms) == 0 {
		platforms = domain.DefaultAdPlatforms
	}

	type indexed struct {
		index int
		ad    domain.Ad
	}

	results, err := runChunked(ctx, e.pacing, len(platforms), func(ctx context.Context, i int) (indexed, error) {
		platform := platforms[i]
		width, height := adSizeFor(platform)
		prompt := fmt.Sprintf("%s advertising image for %s, category %s", productLabel(job.Options), platform, analysis.Category)

		asset, err := e.adapter.SynthesizeImage(ctx, domain.SynthesizeRequest{
			Prompt:    prompt,
			Width:     width,
			Height:    height,
			RequestID: fmt.Sprintf("%s-ad-%s", job.ID, platform),
		})
		if err != nil {
			return indexed{}, err
		}
		return indexed{index: i, ad: domain.Ad{Platform: platform, Image: asset}}, nil
	})
	if err != nil {
		return domain.Result{}, err
	}

	ads := make([]domain.Ad, len(results))
	for _, r := range results {
		ads[r.index] = r.ad
	}
	return domain.Result{Ads: ads}, nil
}

func (e *Executor) runTexts(ctx context.Context, job domain.Job, analysis domain.Analysis) (domain.Result, error) {
	subtasks := []domain.TextSubTask{domain.SubTaskDescription, domain.SubTaskCatchcopy, domain.SubTaskSEO}

	results, err := runChunked(ctx, Pacing{IntraBranchConcurrency: len(subtasks)}, len(subtasks), func(ctx context.Context, i int) (domain.TextBundle, error) {
		return e.adapter.SynthesizeText(ctx, domain.TextContext{
			Analysis:    analysis,
			BrandName:   job.Options.BrandName,
			ProductName: job.Options.ProductName,
			Tone:        job.Options.Tone,
			Language:    job.Options.Language,
			RequestID:   fmt.Sprintf("%s-text-%s", job.ID, subtasks[i]),
			SubTask:     subtasks[i],
		})
	})
	if err != nil {
		return domain.Result{}, err
	}

	bundle := &domain.TextBundle{}
	for _, partial := range results {
		mergeTextBundle(bundle, partial)
	}
	return domain.Result{Texts: bundle}, nil
}

func mergeTextBundle(dst *domain.TextBundle, src domain.TextBundle) {
	if src.DescriptionLong != "" {
		dst.DescriptionLong = src.DescriptionLong
	}
	if src.DescriptionShort != "" {
		dst.DescriptionShort = src.DescriptionShort
	}
	if src.DescriptionBullet != nil {
		dst.DescriptionBullet = src.DescriptionBullet
	}
	if src.Catchcopy != nil {
		dst.Catchcopy = src.Catchcopy
	}
	if src.SEOTitle != "" {
		dst.SEOTitle = src.SEOTitle
	}
	if src.SEODescription != "" {
		dst.SEODescription = src.SEODescription
	}
	if src.SEOKeywords != nil {
		dst.SEOKeywords = src.SEOKeywords
	}
}

// runChunked runs n independent calls of fn with an IntraBranchConcurrency
// cap, pausing InterChunkPause between chunks. Once a chunk finishes, the
// first error in that chunk (by index) is returned with no results at all
// and later chunks never start, consistent with the stage being marked
// Failed as a whole. A free function rather than a method because Go methods
// cannot carry their own type parameters.
func runChunked[T any](ctx context.Context, pacing Pacing, n int, fn func(context.Context, int) (T, error)) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	chunkSize := pacing.IntraBranchConcurrency
	if chunkSize <= 0 {
		chunkSize = n
	}

	results := make([]T, n)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		var wg sync.WaitGroup
		errs := make([]error, end-start)
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := fn(ctx, i)
				results[i] = r
				errs[i-start] = err
			}()
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}

		if end < n && pacing.InterChunkPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pacing.InterChunkPause):
			}
		}
	}
	return results, nil
}

func selectTemplate(analysis domain.Analysis) string {
	switch analysis.ShapeType {
	case "cylindrical":
		return "cylinder-wrap"
	case "spherical":
		return "sphere-hero"
	case "irregular":
		return "freeform-card"
	default:
		return "rectangular-card"
	}
}

func adSizeFor(platform string) (int, int) {
	if dims, ok := domain.AdDimensions[platform]; ok {
		return dims[0], dims[1]
	}
	return 1024, 1024
}

func productLabel(opts domain.Options) string {
	if opts.ProductName != "" {
		return opts.ProductName
	}
	return "product"
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
