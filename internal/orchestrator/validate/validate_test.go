package validate

import (
	"strings"
	"testing"

	"adgen/internal/orchestrator/domain"
)

func TestImageRejectsEmpty(t *testing.T) {
	if err := Image(nil); err == nil {
		t.Fatal("expected an error for empty image bytes")
	}
}

func TestImageRejectsOversized(t *testing.T) {
	data := append([]byte{0xFF, 0xD8}, make([]byte, maxImageBytes+1)...)
	if err := Image(data); err == nil {
		t.Fatal("expected an error for an oversized image")
	}
}

func TestImageRejectsUnsupportedFormat(t *testing.T) {
	if err := Image([]byte("not an image")); err == nil {
		t.Fatal("expected an error for an unrecognized format")
	}
}

func TestImageAcceptsKnownFormats(t *testing.T) {
	cases := map[string][]byte{
		"jpeg": {0xFF, 0xD8, 0xFF, 0xE0},
		"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		"webp": append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...),
	}
	for name, data := range cases {
		if err := Image(data); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
}

func TestOptionsRejectsExplicitZeroPackageVariations(t *testing.T) {
	// An explicit 0 must survive NormalizeOptions (which only defaults an
	// absent field) and be rejected here, the same way Submit would reject it.
	opts := domain.NormalizeOptions(domain.Options{PackageVariations: domain.IntPtr(0)})
	if got := opts.Variations(); got != 0 {
		t.Fatalf("NormalizeOptions changed an explicit 0 to %d", got)
	}

	err := Options(opts)
	if err == nil {
		t.Fatal("expected a validation error for packageVariations=0")
	}
	derr, ok := err.(*domain.Error)
	if !ok {
		t.Fatalf("err = %v (%T), want *domain.Error", err, err)
	}
	if derr.Field != "packageVariations" {
		t.Errorf("Field = %q, want packageVariations", derr.Field)
	}
}

func TestOptionsRejectsOutOfRangePackageVariations(t *testing.T) {
	opts := domain.NormalizeOptions(domain.Options{PackageVariations: domain.IntPtr(11)})
	if err := Options(opts); err == nil {
		t.Fatal("expected a validation error for packageVariations=11")
	}
}

func TestOptionsDefaultsAbsentPackageVariations(t *testing.T) {
	opts := domain.NormalizeOptions(domain.Options{})
	if got := opts.Variations(); got != domain.DefaultPackageVariations {
		t.Fatalf("Variations() = %d, want %d", got, domain.DefaultPackageVariations)
	}
	if err := Options(opts); err != nil {
		t.Fatalf("Options: unexpected error %v", err)
	}
}

func TestOptionsRejectsUnknownTone(t *testing.T) {
	opts := domain.NormalizeOptions(domain.Options{})
	opts.Tone = "sarcastic"
	err := Options(opts)
	if err == nil {
		t.Fatal("expected a validation error for an unrecognized tone")
	}
}

func TestOptionsAcceptsNormalizedDefaults(t *testing.T) {
	opts := domain.NormalizeOptions(domain.Options{})
	if err := Options(opts); err != nil {
		t.Fatalf("Options: unexpected error %v", err)
	}
}

func TestRequiredCapabilitiesVisionAlwaysRequired(t *testing.T) {
	opts := domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true}
	err := RequiredCapabilities(opts, Credentials{})
	if err == nil || !strings.Contains(err.Error(), "vision") {
		t.Fatalf("err = %v, want a vision capability error", err)
	}
}

func TestRequiredCapabilitiesImageSynthesisSkippedWhenBothBranchesSkipped(t *testing.T) {
	opts := domain.Options{SkipPackages: true, SkipAds: true, SkipTexts: true}
	err := RequiredCapabilities(opts, Credentials{Analyzer: true})
	if err != nil {
		t.Fatalf("RequiredCapabilities: unexpected error %v", err)
	}
}

func TestRequiredCapabilitiesImageSynthesisRequiredWhenAdsActive(t *testing.T) {
	opts := domain.Options{SkipPackages: true, SkipAds: false, SkipTexts: true}
	err := RequiredCapabilities(opts, Credentials{Analyzer: true})
	if err == nil {
		t.Fatal("expected an error: ads is active but image synthesis is not configured")
	}
}

func TestRequiredCapabilitiesAllConfigured(t *testing.T) {
	opts := domain.NormalizeOptions(domain.Options{})
	err := RequiredCapabilities(opts, Credentials{Analyzer: true, ImageSynthesizer: true, TextSynthesizer: true})
	if err != nil {
		t.Fatalf("RequiredCapabilities: unexpected error %v", err)
	}
}
