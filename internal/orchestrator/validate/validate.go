// Package validate performs the admission checks Submit runs before a job
// is created: image byte sniffing and struct-tag validation of the
// submission options, translated into the orchestrator's normalized error
// taxonomy.
package validate

import (
	"bytes"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"adgen/internal/orchestrator/domain"
)

const maxImageBytes = 10 * 1024 * 1024

var structValidator = validator.New()

// Credentials reports, for each capability, whether it is configured to
// serve real requests. The fake implementations are always "present"; a
// future vendor-backed adapter would report false when its API key is unset.
type Credentials struct {
	Analyzer         bool
	ImageSynthesizer bool
	TextSynthesizer  bool
}

// Image verifies imageBytes is non-empty, within the size cap, and begins
// with a JPEG, PNG, or WebP magic number.
func Image(imageBytes []byte) error {
	if len(imageBytes) == 0 {
		return domain.NewInvalidInput("imageBuffer", "image bytes must not be empty")
	}
	if len(imageBytes) > maxImageBytes {
		return domain.NewInvalidInput("imageBuffer", "image exceeds the 10 MiB size limit")
	}
	if !looksLikeSupportedImage(imageBytes) {
		return domain.NewInvalidInput("imageBuffer", "image must be JPEG, PNG, or WebP")
	}
	return nil
}

func looksLikeSupportedImage(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return true // JPEG
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return true // PNG
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return true // WebP
	default:
		return false
	}
}

// Options runs struct-tag validation over opts and normalizes every
// validator.FieldError into a domain.Error carrying the offending JSON field
// name, mirroring how this codebase's struct validator resolves json tags.
func Options(opts domain.Options) error {
	if err := structValidator.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			field := jsonFieldName(opts, first.StructField())
			return domain.NewInvalidInput(field, "failed validation: "+first.Tag())
		}
		return domain.NewInvalidInput("options", err.Error())
	}
	return nil
}

func jsonFieldName(s any, structField string) string {
	t := reflect.TypeOf(s)
	f, ok := t.FieldByName(structField)
	if !ok {
		return structField
	}
	tag := f.Tag.Get("json")
	if tag == "" {
		return structField
	}
	return strings.Split(tag, ",")[0]
}

// RequiredCapabilities checks that every capability needed by the
// non-skipped stages of opts is present, given the currently configured
// Credentials (vision is always required; image synthesis required
// unless both Packages and Ads are skipped; text required unless Texts is
// skipped).
func RequiredCapabilities(opts domain.Options, creds Credentials) error {
	if !creds.Analyzer {
		return domain.NewInvalidInput("visionApiKey", "vision capability is not configured")
	}
	if (!opts.SkipPackages || !opts.SkipAds) && !creds.ImageSynthesizer {
		return domain.NewInvalidInput("imageApiKey", "image synthesis capability is not configured")
	}
	if !opts.SkipTexts && !creds.TextSynthesizer {
		return domain.NewInvalidInput("textApiKey", "text synthesis capability is not configured")
	}
	return nil
}
