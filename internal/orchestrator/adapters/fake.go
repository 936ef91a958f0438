// Package adapters provides the orchestrator's three capability
// implementations. The synthetic adapters in this file require no external
// credentials: they derive deterministic, visually-distinguishable output
// from a sha256 seed of the request, the same way this codebase's Gemini
// client falls back to rendered placeholder assets when no API key is
// configured. They are what the orchestrator wires by default, and what
// every test in this module runs against.
package adapters

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"adgen/internal/orchestrator/domain"
)

// FailurePlan lets tests program an adapter to fail its Nth call (1-indexed)
// with a given error kind before resuming normal synthetic behavior. A zero
// value never fails.
type FailurePlan struct {
	FailOnCall int
	Kind       domain.Kind
	Message    string
}

func (p FailurePlan) shouldFail(call int) bool {
	return p.FailOnCall > 0 && call == p.FailOnCall
}

func (p FailurePlan) err() error {
	msg := p.Message
	if msg == "" {
		msg = "synthetic failure injected for testing"
	}
	return &domain.Error{Kind: p.Kind, Message: msg}
}

// FakeAnalyzer derives a deterministic Analysis from a hash of the request
// id and the image's byte length; the image content itself is not read.
type FakeAnalyzer struct {
	calls int
	Plan  FailurePlan
}

func NewFakeAnalyzer(plan FailurePlan) *FakeAnalyzer {
	return &FakeAnalyzer{Plan: plan}
}

func (f *FakeAnalyzer) Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}
	f.calls++
	if f.Plan.shouldFail(f.calls) {
		return domain.Analysis{}, f.Plan.err()
	}

	seed := deterministicSeed(req.RequestID, len(req.ImageBytes))
	palette := paletteFromSeed(seed)
	return domain.Analysis{
		Category:      categoryFromSeed(seed),
		PrimaryColor:  palette[0],
		Secondaries:   palette[1:],
		Palette:       palette,
		ShapeType:     shapeFromSeed(seed),
		RelativeWidth: 0.4 + seedFraction(seed, 0)*0.5,
		RelativeDepth: 0.3 + seedFraction(seed, 1)*0.5,
		Texture:       textureFromSeed(seed),
		Confidence:    0.7 + seedFraction(seed, 2)*0.29,
	}, nil
}

// FakeImageSynthesizer renders a deterministic placeholder PNG per request.
type FakeImageSynthesizer struct {
	calls int
	Plan  FailurePlan
}

func NewFakeImageSynthesizer(plan FailurePlan) *FakeImageSynthesizer {
	return &FakeImageSynthesizer{Plan: plan}
}

func (f *FakeImageSynthesizer) Synthesize(ctx context.Context, req domain.SynthesizeRequest) (domain.ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return domain.ImageAsset{}, err
	}
	f.calls++
	if f.Plan.shouldFail(f.calls) {
		return domain.ImageAsset{}, f.Plan.err()
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	seed := req.Seed
	if seed == "" {
		seed = deterministicSeed(req.Prompt, req.RequestID, width, height)
	}
	data := renderSyntheticImage(width, height, seed)
	return domain.ImageAsset{
		URL:           fmt.Sprintf("synthetic://images/%s.png", seed),
		Format:        "image/png",
		Width:         width,
		Height:        height,
		Data:          data,
		RevisedPrompt: req.Prompt,
		Seed:          seed,
	}, nil
}

// FakeTextSynthesizer produces deterministic marketing copy derived from the
// analysis and brand context, varying wording by requested tone.
type FakeTextSynthesizer struct {
	calls int
	Plan  FailurePlan
}

func NewFakeTextSynthesizer(plan FailurePlan) *FakeTextSynthesizer {
	return &FakeTextSynthesizer{Plan: plan}
}

func (f *FakeTextSynthesizer) SynthesizeText(ctx context.Context, tctx domain.TextContext) (domain.TextBundle, error) {
	if err := ctx.Err(); err != nil {
		return domain.TextBundle{}, err
	}
	f.calls++
	if f.Plan.shouldFail(f.calls) {
		return domain.TextBundle{}, f.Plan.err()
	}

	product := strings.TrimSpace(tctx.ProductName)
	if product == "" {
		product = "this product"
	}
	brand := strings.TrimSpace(tctx.BrandName)
	color := tctx.Analysis.PrimaryColor
	if color == "" {
		color = "neutral"
	}

	titler := titleCaser(tctx.Language)

	switch tctx.SubTask {
	case domain.SubTaskCatchcopy:
		catchcopy := make([]domain.TextVariation, 0, 3)
		for _, tone := range []string{"professional", "casual", "bold"} {
			catchcopy = append(catchcopy, domain.TextVariation{
				Text: catchphraseForTone(product, tone, titler),
				Tone: tone,
			})
		}
		return domain.TextBundle{Catchcopy: catchcopy}, nil

	case domain.SubTaskSEO:
		short := fmt.Sprintf("%s, %s finish.", product, color)
		return domain.TextBundle{
			SEOTitle:       fmt.Sprintf("%s | %s", product, brandOrGeneric(brand)),
			SEODescription: short,
			SEOKeywords:    []string{product, color, tctx.Analysis.Category},
		}, nil

	default: // SubTaskDescription and unset
		long := fmt.Sprintf("%s brings %s craftsmanship to %s, finished in a %s tone with a %s surface.",
			product, toneAdjective(tctx.Tone), brandOrGeneric(brand), color, tctx.Analysis.Texture)
		short := fmt.Sprintf("%s, %s finish.", product, color)
		bullets := []string{
			fmt.Sprintf("%s colorway", titler.String(color)),
			fmt.Sprintf("%s texture", titler.String(fallback(tctx.Analysis.Texture, "smooth"))),
			fmt.Sprintf("%s category", titler.String(fallback(tctx.Analysis.Category, "general"))),
		}
		return domain.TextBundle{
			DescriptionLong:   long,
			DescriptionShort:  short,
			DescriptionBullet: bullets,
		}, nil
	}
}

func brandOrGeneric(brand string) string {
	if brand == "" {
		return "this brand"
	}
	return brand
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toneAdjective(tone string) string {
	switch tone {
	case "casual":
		return "relaxed"
	case "bold":
		return "striking"
	case "luxury":
		return "refined"
	case "playful":
		return "playful"
	default:
		return "considered"
	}
}

func catchphraseForTone(product, tone string, titler cases.Caser) string {
	switch tone {
	case "casual":
		return fmt.Sprintf("Meet your new favorite %s.", product)
	case "bold":
		return fmt.Sprintf("%s. Unapologetically.", titler.String(product))
	default:
		return fmt.Sprintf("%s, crafted with intent.", titler.String(product))
	}
}

// titleCaser resolves a BCP 47 title caser for the job's requested language,
// falling back to English for anything the locale parser rejects.
func titleCaser(lang string) cases.Caser {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func seedFraction(seed string, shift int) float64 {
	doubled := seed + seed
	start := (shift * 4) % len(seed)
	segment := doubled[start : start+4]
	v, err := strconv.ParseUint(segment, 16, 32)
	if err != nil {
		return 0
	}
	return float64(v) / float64(0xFFFF)
}

func categoryFromSeed(seed string) string {
	categories := []string{"apparel", "home-goods", "electronics", "beauty", "beverage", "accessories"}
	return categories[int(hashByte(seed, 0))%len(categories)]
}

func shapeFromSeed(seed string) string {
	shapes := []string{"rectangular", "cylindrical", "spherical", "irregular", "unknown"}
	return shapes[int(hashByte(seed, 1))%len(shapes)]
}

func textureFromSeed(seed string) string {
	textures := []string{"glossy", "matte", "metallic", "rough", "smooth", "unknown"}
	return textures[int(hashByte(seed, 2))%len(textures)]
}

func paletteFromSeed(seed string) []string {
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	highlight := colorFromSeed(seed, 2)
	return []string{hexString(base), hexString(accent), hexString(highlight)}
}

func hexString(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func hashByte(seed string, shift int) uint8 {
	if seed == "" {
		return 0
	}
	doubled := seed + seed
	start := (shift * 2) % len(seed)
	segment := doubled[start : start+2]
	v, err := strconv.ParseUint(segment, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "0000000000000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	if len(segment) < 6 {
		segment = segment + strings.Repeat("0", 6-len(segment))
	}
	r := hashHexByte(segment[0:2])
	g := hashHexByte(segment[2:4])
	b := hashHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hashHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := maxInt(16, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, minInt(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
