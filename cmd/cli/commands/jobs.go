package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adgen/internal/orchestrator"
	"adgen/internal/orchestrator/domain"
)

func init() {
	submitCmd.Flags().String("image", "", "path to the product image (required)")
	submitCmd.Flags().String("brand", "", "brand name")
	submitCmd.Flags().String("product", "", "product name")
	submitCmd.Flags().Int("variations", 3, "number of package variations")
	submitCmd.Flags().StringSlice("platforms", nil, "ad platforms (defaults to the standard set)")
	submitCmd.Flags().String("tone", "professional", "marketing tone")
	submitCmd.Flags().String("language", "en", "BCP 47 language tag")
	submitCmd.Flags().Bool("skip-packages", false, "skip the Packages branch")
	submitCmd.Flags().Bool("skip-ads", false, "skip the Ads branch")
	submitCmd.Flags().Bool("skip-texts", false, "skip the Texts branch")
	submitCmd.Flags().Bool("wait", false, "block until the job reaches a terminal state before returning")
	submitCmd.Flags().Duration("timeout", 2*time.Minute, "timeout for --wait")
	_ = submitCmd.MarkFlagRequired("image")

	statusCmd.Flags().String("id", "", "job id (required)")
	_ = statusCmd.MarkFlagRequired("id")

	waitCmd.Flags().String("id", "", "job id (required)")
	waitCmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait before giving up")
	_ = waitCmd.MarkFlagRequired("id")

	bundleCmd.Flags().String("id", "", "job id (required)")
	bundleCmd.Flags().String("out", "", "output zip path (defaults to {id}.zip)")
	_ = bundleCmd.MarkFlagRequired("id")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a product image and generate marketing artifacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("image")
		imageBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		brand, _ := cmd.Flags().GetString("brand")
		product, _ := cmd.Flags().GetString("product")
		variations, _ := cmd.Flags().GetInt("variations")
		platforms, _ := cmd.Flags().GetStringSlice("platforms")
		tone, _ := cmd.Flags().GetString("tone")
		language, _ := cmd.Flags().GetString("language")
		skipPackages, _ := cmd.Flags().GetBool("skip-packages")
		skipAds, _ := cmd.Flags().GetBool("skip-ads")
		skipTexts, _ := cmd.Flags().GetBool("skip-texts")
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		opts := domain.Options{
			BrandName:         brand,
			ProductName:       product,
			PackageVariations: domain.IntPtr(variations),
			AdPlatforms:       platforms,
			Tone:              tone,
			Language:          language,
			SkipPackages:      skipPackages,
			SkipAds:           skipAds,
			SkipTexts:         skipTexts,
		}

		jobID, status, estimatedSeconds, err := orch.Submit(context.Background(), imageBytes, opts)
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		printJSON(map[string]any{
			"jobId":            jobID,
			"status":           status,
			"estimatedSeconds": estimatedSeconds,
		})

		if !wait {
			return nil
		}
		return waitAndPrint(jobID, timeout)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch a job's current status and progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")
		snap, ok := orch.GetStatus(id)
		if !ok {
			return fmt.Errorf("job %s not found", id)
		}
		printJSON(snapshotJSON(snap))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every job currently tracked in this process",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snaps := orch.ListJobs()
		out := make([]map[string]any, len(snaps))
		for i, snap := range snaps {
			out[i] = snapshotJSON(snap)
		}
		printJSON(out)
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a job reaches a terminal state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return waitAndPrint(id, timeout)
	},
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Build and save the output bundle for a completed job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = id + ".zip"
		}

		archive, err := orch.BuildBundle(id)
		if err != nil {
			return fmt.Errorf("build bundle: %w", err)
		}
		if err := os.WriteFile(out, archive, 0o644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		printJSON(map[string]any{"jobId": id, "path": out, "bytes": len(archive)})
		return nil
	},
}

func waitAndPrint(jobID string, timeout time.Duration) error {
	job, err := orch.WaitForCompletion(jobID, timeout)
	if err != nil {
		return err
	}
	snap := orchestrator.StatusSnapshot{
		ID: job.ID, Status: job.Status, Progress: job.Progress,
		Result: job.Result, Error: job.Error,
		CreatedAt: job.CreatedAt, UpdatedAt: job.UpdatedAt, CompletedAt: job.CompletedAt,
	}
	printJSON(snapshotJSON(snap))
	return nil
}

func snapshotJSON(snap orchestrator.StatusSnapshot) map[string]any {
	progress := make(map[string]string, len(snap.Progress))
	for stage, status := range snap.Progress {
		progress[string(stage)] = string(status)
	}
	out := map[string]any{
		"id":       snap.ID,
		"status":   snap.Status,
		"progress": progress,
	}
	if snap.Error != "" {
		out["error"] = snap.Error
	}
	if snap.Result != nil {
		out["result"] = snap.Result
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(strings.TrimSpace(fmt.Sprintf("%v", v)))
		return
	}
	fmt.Println(string(data))
}
