package thumbnails_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thumbnails "github.com/xZise/ElegooNeptuneThumbnails-Prusa"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/storage"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

func previewPNG(t testing.TB) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 600, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 600; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x / 3), G: uint8(y / 3), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// slice builds a PrusaSlicer-style file with a 600x600 preview.
func slice(t testing.TB, model string) string {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString(previewPNG(t))
	var b strings.Builder
	b.WriteString("; generated by PrusaSlicer 2.7.1 on 2024-01-01 at 12:00:00 UTC\n\n")
	b.WriteString("; thumbnail begin 600x600 " + strconv.Itoa(len(encoded)) + "\n")
	for len(encoded) > 0 {
		n := min(78, len(encoded))
		b.WriteString("; " + encoded[:n] + "\n")
		encoded = encoded[n:]
	}
	b.WriteString("; thumbnail end\n\n")
	b.WriteString("G28\nG1 X10 Y10 E1\n")
	b.WriteString("; filament used [g] = 12.34\n")
	b.WriteString("; estimated printing time (normal mode) = 1h 6m 0s\n")
	if model != "" {
		b.WriteString("; printer_model = " + model + "\n")
	}
	return b.String()
}

func newInjector(t *testing.T, mutate func(*thumbnails.Injector)) *thumbnails.Injector {
	t.Helper()
	inj, err := thumbnails.New(thumbnails.DefaultConfig())
	require.NoError(t, err)
	if mutate != nil {
		mutate(inj)
	}
	return inj
}

func TestInject_Modern(t *testing.T) {
	inj := newInjector(t, nil)
	in := slice(t, "NEPTUNE4")

	res, err := inj.Inject(context.Background(), []byte(in))
	require.NoError(t, err)
	require.Equal(t, core.StatusInjected, res.Status)
	assert.Equal(t, core.GroupModern, res.Model.Group)

	out := string(res.Output)
	require.True(t, strings.HasPrefix(out, ";gimage:"))
	simage := strings.Index(out, "\r;simage:")
	require.Positive(t, simage)

	credit := strings.Index(out, core.Credit)
	require.Greater(t, credit, simage)
	body := out[credit+len(core.Credit):]
	assert.Contains(t, body, "; generated by CensoredSlicer 2.7.1")
	assert.NotContains(t, body, "PrusaSlicer")
	assert.Contains(t, body, "; printer_model = NEPTUNE4\n")

	require.Len(t, res.Blocks, 2)
	assert.Equal(t, 200, res.Blocks[0].Width)
	assert.Equal(t, 160, res.Blocks[1].Width)
	assert.Contains(t, res.StepTimings, "gimage.block")
}

func TestInject_Idempotent(t *testing.T) {
	inj := newInjector(t, nil)
	first, err := inj.Inject(context.Background(), []byte(slice(t, "NEPTUNE3PRO")))
	require.NoError(t, err)
	require.Equal(t, core.StatusInjected, first.Status)

	second, err := inj.Inject(context.Background(), first.Output)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAlreadyPresent, second.Status)
	assert.Equal(t, first.Output, second.Output)

	injected, skipped, errs := inj.Stats()
	assert.Equal(t, int64(1), injected)
	assert.Equal(t, int64(1), skipped)
	assert.Zero(t, errs)
	assert.Equal(t, injected, inj.Inner().InjectedCount())
}

func TestInject_Legacy(t *testing.T) {
	inj := newInjector(t, nil)
	res, err := inj.Inject(context.Background(), []byte(slice(t, "NEPTUNE2S")))
	require.NoError(t, err)
	require.Equal(t, core.StatusInjected, res.Status)

	out := string(res.Output)
	require.True(t, strings.HasPrefix(out, ";simage:"))
	assert.Contains(t, out, "\r;;gimage:")
	// 100 rows for simage, 200 for gimage.
	assert.Equal(t, 300, strings.Count(out, "\rM10086 ;"))
}

func TestInject_JPEG(t *testing.T) {
	inj := newInjector(t, nil)
	res, err := inj.Inject(context.Background(), []byte(slice(t, "ORANGESTORMGIGA")))
	require.NoError(t, err)
	require.Equal(t, core.StatusInjected, res.Status)
	require.Len(t, res.Blocks, 2)

	var payload strings.Builder
	for _, l := range res.Blocks[1].Lines() {
		// The last line is commented out as ";;simage:".
		payload.WriteString(strings.TrimPrefix(strings.TrimLeft(l, ";"), "simage:"))
	}
	data, err := base64.StdEncoding.DecodeString(payload.String())
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 114, cfg.Width)
	assert.Equal(t, 114, cfg.Height)
}

func TestInject_PrinterOverride(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.Printer = "NEPTUNEX"
	inj, err := thumbnails.New(cfg)
	require.NoError(t, err)

	res, err := inj.Inject(context.Background(), []byte(slice(t, "NEPTUNE4")))
	require.NoError(t, err)
	assert.Equal(t, core.GroupLegacy, res.Model.Group)
	assert.True(t, strings.HasPrefix(string(res.Output), ";simage:"))
}

func TestInject_UnsupportedModel(t *testing.T) {
	inj := newInjector(t, nil)
	in := slice(t, "MK4")
	res, err := inj.Inject(context.Background(), []byte(in))
	require.NoError(t, err)
	assert.Equal(t, core.StatusUnsupportedModel, res.Status)
	assert.Equal(t, in, string(res.Output))
}

func TestInject_MissingThumbnail(t *testing.T) {
	inj := newInjector(t, nil)
	_, err := inj.Inject(context.Background(), []byte("G28\n; printer_model = NEPTUNE4\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryThumbnail))
}

func TestInject_Overlay(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.Overlay.TopLeft = "time_estimate"
	cfg.Overlay.BackgroundColor = "#000000"
	inj, err := thumbnails.New(cfg)
	require.NoError(t, err)

	plain := newInjector(t, nil)
	in := []byte(slice(t, "NEPTUNE4"))
	withLabels, err := inj.Inject(context.Background(), in)
	require.NoError(t, err)
	without, err := plain.Inject(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, without.Blocks[0].Text, withLabels.Blocks[0].Text)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.Overlay.BottomRight = "weather"
	_, err := thumbnails.New(cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))

	cfg = thumbnails.DefaultConfig()
	cfg.Overlay.TextColor = "not a colour"
	_, err = thumbnails.New(cfg)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))

	cfg = thumbnails.DefaultConfig()
	cfg.ThumbnailSize = "600"
	_, err = thumbnails.New(cfg)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func writeGcode(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "part.gcode")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInjectFile_BackupAndRestore(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.Backup = true
	inj, err := thumbnails.New(cfg)
	require.NoError(t, err)

	in := slice(t, "NEPTUNE4PRO")
	path := writeGcode(t, in)
	res, err := inj.InjectFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, core.StatusInjected, res.Status)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Output, got)
	assert.FileExists(t, storage.BackupPath(path))

	require.NoError(t, inj.Restore(context.Background(), path))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, string(got))
	assert.NoFileExists(t, storage.BackupPath(path))
}

func TestInjectFile_BackupFollowsReslice(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.Backup = true
	inj, err := thumbnails.New(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	path := writeGcode(t, slice(t, "NEPTUNE4"))
	_, err = inj.InjectFile(ctx, path)
	require.NoError(t, err)

	// The slicer writes a new file to the same path.
	second := slice(t, "NEPTUNE4PRO")
	require.NoError(t, os.WriteFile(path, []byte(second), 0o644))
	_, err = inj.InjectFile(ctx, path)
	require.NoError(t, err)

	// Running again on injected content leaves the backup alone.
	res, err := inj.InjectFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, core.StatusAlreadyPresent, res.Status)

	require.NoError(t, inj.Restore(ctx, path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, second, string(got))
}

func TestInjectFile_UntouchedOnError(t *testing.T) {
	inj := newInjector(t, nil)
	in := "G28\n; printer_model = NEPTUNE4\n"
	path := writeGcode(t, in)
	info, err := os.Stat(path)
	require.NoError(t, err)

	_, err = inj.InjectFile(context.Background(), path)
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, string(got))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestBatch(t *testing.T) {
	cfg := thumbnails.DefaultConfig()
	cfg.WorkerCount = 2
	inj, err := thumbnails.New(cfg)
	require.NoError(t, err)

	paths := []string{
		writeGcode(t, slice(t, "NEPTUNE4")),
		writeGcode(t, "G28\n; printer_model = NEPTUNE4\n"),
		writeGcode(t, slice(t, "NEPTUNE2")),
		filepath.Join(t.TempDir(), "missing.gcode"),
	}
	results, errs := inj.Batch(context.Background(), paths)
	require.Len(t, results, 4)
	require.Len(t, errs, 4)

	assert.NoError(t, errs[0])
	assert.Equal(t, core.StatusInjected, results[0].Status)
	assert.True(t, apperrors.IsCategory(errs[1], apperrors.CategoryThumbnail))
	assert.NoError(t, errs[2])
	assert.Equal(t, core.GroupLegacy, results[2].Model.Group)
	assert.True(t, apperrors.IsCategory(errs[3], apperrors.CategoryStorage))
}

type countingHook struct {
	mu    sync.Mutex
	steps map[string]int
}

func (h *countingHook) BeforeStep(context.Context, string, *core.ImageData) {}

func (h *countingHook) AfterStep(_ context.Context, name string, _ *core.ImageData, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps[name]++
}

func TestAddHook(t *testing.T) {
	hook := &countingHook{steps: map[string]int{}}
	inj := newInjector(t, func(i *thumbnails.Injector) { i.AddHook(hook) })

	_, err := inj.Inject(context.Background(), []byte(slice(t, "NEPTUNE4")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"decode": 1, "block": 2}, hook.steps)
}

func BenchmarkInject_Modern(b *testing.B) {
	inj, err := thumbnails.New(thumbnails.DefaultConfig())
	require.NoError(b, err)
	in := []byte(slice(b, "NEPTUNE4"))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := inj.Inject(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}
