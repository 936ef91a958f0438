package domain

// DefaultAdPlatforms is the platform set used when a submission omits one.
var DefaultAdPlatforms = []string{
	"instagram-square",
	"twitter-card",
	"facebook-feed",
	"web-banner-medium-rectangle",
}

// AdDimensions maps each canonical platform to its exact output size in pixels.
var AdDimensions = map[string][2]int{
	"instagram-square":            {1080, 1080},
	"twitter-card":                {1200, 675},
	"facebook-feed":               {1200, 630},
	"web-banner-medium-rectangle": {300, 250},
}

// DefaultPackageVariations is the number of package variations a submission
// gets when it omits the field entirely.
const DefaultPackageVariations = 3

// Options is the frozen submission configuration for one job.
//
// PackageVariations is a pointer so NormalizeOptions can tell an omitted
// field (nil, defaulted to DefaultPackageVariations) apart from an explicit
// invalid value such as 0, which must still fail validation.
type Options struct {
	BrandName         string   `json:"brandName" validate:"omitempty,max=100"`
	ProductName       string   `json:"productName" validate:"omitempty,max=200"`
	PackageVariations *int     `json:"packageVariations" validate:"required,min=1,max=10"`
	AdPlatforms       []string `json:"adPlatforms" validate:"omitempty,dive,required"`
	Tone              string   `json:"tone" validate:"omitempty,oneof=playful professional luxury minimal"`
	Language          string   `json:"language" validate:"omitempty,oneof=en id ja"`
	SkipPackages      bool     `json:"skipPackages"`
	SkipAds           bool     `json:"skipAds"`
	SkipTexts         bool     `json:"skipTexts"`
}

// IntPtr returns a pointer to n, for populating PackageVariations.
func IntPtr(n int) *int {
	return &n
}

// Variations returns the resolved package-variation count, defaulting an
// unset field the same way NormalizeOptions does. Safe to call on Options
// that were never normalized.
func (o Options) Variations() int {
	if o.PackageVariations == nil {
		return DefaultPackageVariations
	}
	return *o.PackageVariations
}

// NormalizeOptions fills in baseline defaults before validation runs. It
// only defaults PackageVariations when the field is absent (nil); an
// explicit value, including an explicit 0, is left alone so validate.Options
// can reject it.
func NormalizeOptions(o Options) Options {
	if o.PackageVariations == nil {
		o.PackageVariations = IntPtr(DefaultPackageVariations)
	}
	if len(o.AdPlatforms) == 0 {
		o.AdPlatforms = append([]string(nil), DefaultAdPlatforms...)
	}
	if o.Tone == "" {
		o.Tone = "professional"
	}
	if o.Language == "" {
		o.Language = "en"
	}
	return o
}

// Clone returns a copy whose slices do not alias the original.
func (o Options) Clone() Options {
	out := o
	if o.AdPlatforms != nil {
		out.AdPlatforms = append([]string(nil), o.AdPlatforms...)
	}
	return out
}

// StageSkipped reports whether the options request skipping the given stage.
// Analysis can never be skipped.
func (o Options) StageSkipped(stage Stage) bool {
	switch stage {
	case StagePackages:
		return o.SkipPackages
	case StageAds:
		return o.SkipAds
	case StageTexts:
		return o.SkipTexts
	default:
		return false
	}
}

// EstimatedSeconds is a closed-form duration estimate for the submission.
func (o Options) EstimatedSeconds() int {
	total := 10
	if !o.SkipPackages {
		total += o.Variations() * 15
	}
	if !o.SkipAds {
		total += len(o.AdPlatforms) * 10
	}
	if !o.SkipTexts {
		total += 10
	}
	return total
}
