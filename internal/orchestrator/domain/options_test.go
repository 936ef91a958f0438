package domain

import (
	"reflect"
	"testing"
)

func TestNormalizeOptionsFillsDefaults(t *testing.T) {
	got := NormalizeOptions(Options{})
	if got.Variations() != 3 {
		t.Errorf("Variations() = %d, want 3", got.Variations())
	}
	if got.Tone != "professional" {
		t.Errorf("Tone = %q, want professional", got.Tone)
	}
	if got.Language != "en" {
		t.Errorf("Language = %q, want en", got.Language)
	}
	if !reflect.DeepEqual(got.AdPlatforms, DefaultAdPlatforms) {
		t.Errorf("AdPlatforms = %v, want %v", got.AdPlatforms, DefaultAdPlatforms)
	}
}

func TestNormalizeOptionsPreservesExplicitValues(t *testing.T) {
	opts := Options{PackageVariations: IntPtr(5), Tone: "luxury", Language: "ja", AdPlatforms: []string{"twitter-card"}}
	got := NormalizeOptions(opts)
	if got.Variations() != 5 || got.Tone != "luxury" || got.Language != "ja" {
		t.Fatalf("NormalizeOptions overwrote explicit values: %+v", got)
	}
	if len(got.AdPlatforms) != 1 || got.AdPlatforms[0] != "twitter-card" {
		t.Fatalf("AdPlatforms = %v, want [twitter-card]", got.AdPlatforms)
	}
}

func TestNormalizeOptionsPreservesExplicitZeroPackageVariations(t *testing.T) {
	got := NormalizeOptions(Options{PackageVariations: IntPtr(0)})
	if got.Variations() != 0 {
		t.Fatalf("NormalizeOptions overwrote an explicit 0: Variations() = %d", got.Variations())
	}
}

func TestCloneDoesNotAliasAdPlatforms(t *testing.T) {
	opts := Options{AdPlatforms: []string{"a", "b"}}
	clone := opts.Clone()
	clone.AdPlatforms[0] = "mutated"
	if opts.AdPlatforms[0] != "a" {
		t.Fatalf("Clone aliased AdPlatforms: original mutated to %q", opts.AdPlatforms[0])
	}
}

func TestStageSkipped(t *testing.T) {
	opts := Options{SkipPackages: true, SkipTexts: true}
	cases := map[Stage]bool{
		StageAnalysis: false,
		StagePackages: true,
		StageAds:      false,
		StageTexts:    true,
	}
	for stage, want := range cases {
		if got := opts.StageSkipped(stage); got != want {
			t.Errorf("StageSkipped(%s) = %v, want %v", stage, got, want)
		}
	}
}

func TestEstimatedSeconds(t *testing.T) {
	opts := Options{PackageVariations: IntPtr(2), AdPlatforms: []string{"a", "b", "c"}}
	// 10 base + 2*15 packages + 3*10 ads + 10 texts
	want := 10 + 30 + 30 + 10
	if got := opts.EstimatedSeconds(); got != want {
		t.Errorf("EstimatedSeconds() = %d, want %d", got, want)
	}
}

func TestEstimatedSecondsAllSkipped(t *testing.T) {
	opts := Options{SkipPackages: true, SkipAds: true, SkipTexts: true}
	if got := opts.EstimatedSeconds(); got != 10 {
		t.Errorf("EstimatedSeconds() = %d, want 10", got)
	}
}
