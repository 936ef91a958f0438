// Package bundle materializes the output bundle layout for a
// terminal job into an in-memory zip archive, built lazily on each request
// straight from the stored Result.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"

	"adgen/internal/orchestrator/domain"
	"adgen/internal/storage"
	"adgen/pkg/zip"
)

// ErrNoResult is returned when the job has no result to bundle at all.
type ErrNoResult struct{ JobID string }

func (e *ErrNoResult) Error() string {
	return fmt.Sprintf("job %s has no completed stage to bundle", e.JobID)
}

// Build assembles the zip archive with this layout:
//
//	/{jobId}/analysis.json
//	/{jobId}/packages/{variationType}.png
//	/{jobId}/ads/{platform}.png
//	/{jobId}/texts.json
func Build(job domain.Job) ([]byte, error) {
	if job.Result == nil {
		return nil, &ErrNoResult{JobID: job.ID}
	}

	var assets []zip.Asset
	root := job.ID

	if job.Result.Analysis != nil {
		data, err := json.MarshalIndent(job.Result.Analysis, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("bundle: marshal analysis: %w", err)
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s/analysis.json", root),
			MIME:     "application/json",
			Data:     data,
		})
	}

	for _, pkg := range job.Result.Packages {
		if len(pkg.Image.Data) == 0 {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s/packages/%s.png", root, pkg.VariationType),
			MIME:     "image/png",
			Data:     pkg.Image.Data,
		})
	}

	for _, ad := range job.Result.Ads {
		if len(ad.Image.Data) == 0 {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s/ads/%s.png", root, ad.Platform),
			MIME:     "image/png",
			Data:     ad.Image.Data,
		})
	}

	if job.Result.Texts != nil {
		data, err := json.MarshalIndent(job.Result.Texts, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("bundle: marshal texts: %w", err)
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s/texts.json", root),
			MIME:     "application/json",
			Data:     data,
		})
	}

	if len(assets) == 0 {
		return nil, &ErrNoResult{JobID: job.ID}
	}

	return zip.ArchiveAssets(assets), nil
}

// DownloadURL derives the implementation-defined download pointer ending in
// the job id.
func DownloadURL(jobID string) string {
	return fmt.Sprintf("/v1/jobs/%s/bundle", jobID)
}

// SaveToDisk writes archive under the FileStore at "{jobID}/bundle.zip". It
// is an optional persistence step on top of Build — BuildBundle always
// returns the archive bytes regardless of whether a disk sink is configured.
func SaveToDisk(ctx context.Context, fs *storage.FileStore, jobID string, archive []byte) (string, error) {
	return fs.Write(ctx, fmt.Sprintf("%s/bundle.zip", jobID), archive)
}
