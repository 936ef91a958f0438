package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/adapters"
	"adgen/internal/orchestrator/domain"
	"adgen/internal/orchestrator/validate"
)

func testConfig() Config {
	cfg := Default()
	cfg.AnalysisTimeout = 2 * time.Second
	cfg.ImageTimeout = 2 * time.Second
	cfg.TextsTimeout = 2 * time.Second
	cfg.IntraBranchConcurrency = 4
	cfg.InterChunkPause = 0
	cfg.CleanupInterval = 0
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.CircuitBreaker.MinRequestsToTrip = 1000
	return cfg
}

func testOrchestrator() *Orchestrator {
	creds := validate.Credentials{Analyzer: true, ImageSynthesizer: true, TextSynthesizer: true}
	return New(testConfig(), adapters.NewFakeAnalyzer(adapters.FailurePlan{}), adapters.NewFakeImageSynthesizer(adapters.FailurePlan{}), adapters.NewFakeTextSynthesizer(adapters.FailurePlan{}), creds, zerolog.Nop())
}

func jpegBytes() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
}

func TestSubmitRejectsInvalidImage(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	_, _, _, err := o.Submit(context.Background(), []byte("not an image"), domain.Options{})
	if err == nil {
		t.Fatal("expected a validation error for an unsupported image")
	}
}

func TestSubmitRejectsMissingCapability(t *testing.T) {
	creds := validate.Credentials{}
	o := New(testConfig(), adapters.NewFakeAnalyzer(adapters.FailurePlan{}), adapters.NewFakeImageSynthesizer(adapters.FailurePlan{}), adapters.NewFakeTextSynthesizer(adapters.FailurePlan{}), creds, zerolog.Nop())
	defer o.Shutdown()

	_, _, _, err := o.Submit(context.Background(), jpegBytes(), domain.Options{})
	if err == nil {
		t.Fatal("expected an error when no capability credentials are configured")
	}
}

func TestSubmitAndWaitForCompletion(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, status, estimated, err := o.Submit(context.Background(), jpegBytes(), domain.Options{PackageVariations: domain.IntPtr(1), SkipAds: true, SkipTexts: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a non-empty job id")
	}
	if status != domain.StatusPending {
		t.Fatalf("initial status = %s, want pending", status)
	}
	if estimated <= 0 {
		t.Fatal("expected a positive estimate")
	}

	job, err := o.WaitForCompletion(jobID, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForCompletion: %v", err)
	}
	if job.Status != domain.StatusCompleted {
		t.Fatalf("final status = %s, want completed", job.Status)
	}
	if job.Result == nil || job.Result.DownloadURL == "" {
		t.Fatal("expected a populated result with a download url")
	}
}

func TestWaitForCompletionUnknownJob(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	_, err := o.WaitForCompletion("does-not-exist", time.Second)
	if err == nil {
		t.Fatal("expected an error for an unknown job id")
	}
}

func TestGetStatusAndListJobs(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, _, _, err := o.Submit(context.Background(), jpegBytes(), domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap, ok := o.GetStatus(jobID)
	if !ok {
		t.Fatal("GetStatus: job not found")
	}
	if snap.ID != jobID {
		t.Fatalf("snap.ID = %s, want %s", snap.ID, jobID)
	}

	jobs := o.ListJobs()
	if len(jobs) != 1 {
		t.Fatalf("ListJobs = %d entries, want 1", len(jobs))
	}
}

func TestDeleteJobRemovesIt(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, _, _, _ := o.Submit(context.Background(), jpegBytes(), domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true})
	if _, err := o.WaitForCompletion(jobID, 5*time.Second); err != nil {
		t.Fatalf("WaitForCompletion: %v", err)
	}

	if !o.DeleteJob(jobID) {
		t.Fatal("DeleteJob: expected true for an existing job")
	}
	if _, ok := o.GetStatus(jobID); ok {
		t.Fatal("expected the job to be gone after DeleteJob")
	}
}

func TestSubscribeProgressObservesCompletion(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, _, _, _ := o.Submit(context.Background(), jpegBytes(), domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true})

	var mu sync.Mutex
	completed := false
	unsub, ok := o.SubscribeProgress(jobID, func(evt domain.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if evt.Kind == domain.EventComplete {
			completed = true
		}
	})
	if !ok {
		t.Fatal("SubscribeProgress: job not found")
	}
	defer unsub()

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		done := completed
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("never observed a completion event")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBuildBundleReturnsArchiveAfterCompletion(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, _, _, _ := o.Submit(context.Background(), jpegBytes(), domain.Options{PackageVariations: domain.IntPtr(1), SkipAds: true, SkipTexts: true})
	if _, err := o.WaitForCompletion(jobID, 5*time.Second); err != nil {
		t.Fatalf("WaitForCompletion: %v", err)
	}

	archive, err := o.BuildBundle(jobID)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if len(archive) == 0 {
		t.Fatal("expected a non-empty archive")
	}
}

func TestSystemStatusReportsActiveAndTotal(t *testing.T) {
	o := testOrchestrator()
	defer o.Shutdown()

	jobID, _, _, _ := o.Submit(context.Background(), jpegBytes(), domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true})
	if _, err := o.WaitForCompletion(jobID, 5*time.Second); err != nil {
		t.Fatalf("WaitForCompletion: %v", err)
	}

	snap := o.SystemStatus()
	if snap.TotalJobs != 1 {
		t.Fatalf("TotalJobs = %d, want 1", snap.TotalJobs)
	}
	if snap.MaxConcurrent != testConfig().MaxConcurrentJobs {
		t.Fatalf("MaxConcurrent = %d, want %d", snap.MaxConcurrent, testConfig().MaxConcurrentJobs)
	}
}
