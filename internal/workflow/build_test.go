package workflow_test

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"mineardmg/internal/audio"
	"mineardmg/internal/codec"
	"mineardmg/internal/config"
	"mineardmg/internal/pack"
	"mineardmg/internal/pipeline"
	"mineardmg/internal/services"
	"mineardmg/internal/testsupport"
	"mineardmg/internal/workflow"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func pcmBuilder(cfg *config.Config) *workflow.Builder {
	return workflow.New(cfg,
		workflow.WithCodec(func(int) codec.Codec { return testsupport.PCMCodec{BlockFrames: 3} }),
		workflow.WithClock(func() time.Time { return fixedTime }),
	)
}

func tone(amp float32) []byte {
	return testsupport.EncodePCM(audio.Format{SampleRate: 44100, Channels: 1}, testsupport.Tone(1, 8, amp))
}

func intPtr(v int) *int { return &v }

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		files[f.Name] = data
	}
	return files
}

func TestBuildWritesPackWithGain(t *testing.T) {
	shared := tone(0.25)
	launcher := testsupport.NewLauncher(t,
		testsupport.LauncherVersion{ID: "24w10a", Type: "snapshot", PackVersion: 30},
		testsupport.LauncherVersion{
			ID:          "1.20.5",
			Type:        "release",
			PackVersion: map[string]int{"resource": 32, "data": 41},
			Objects: map[string][]byte{
				"minecraft/sounds/mob/cat/meow1.ogg": shared,
				"minecraft/sounds/mob/cat/meow2.ogg": shared,
				"minecraft/sounds/ambient/cave1.ogg": tone(0.1),
				"minecraft/lang/en_us.json":          []byte("{}"),
				"minecraft/sounds.json":              []byte("{}"),
			},
		},
	)
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))

	var (
		mu     sync.Mutex
		events []pipeline.Event
		plan   workflow.Plan
	)
	summary, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{
		Version: "latest",
		GainDB:  intPtr(6),
		OnPlan:  func(p workflow.Plan) { plan = p },
		Reporter: func(ev pipeline.Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if plan.Version.ID != "1.20.5" || plan.PackVersion != 32 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.Sounds != 3 || plan.Unique != 2 {
		t.Fatalf("expected 3 sounds over 2 hashes, got %+v", plan)
	}
	if plan.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(events) != 2 {
		t.Fatalf("expected one event per unique hash, got %d", len(events))
	}
	if summary.Outcome.Succeeded() != 2 || len(summary.Outcome.Failures) != 0 {
		t.Fatalf("unexpected outcome %+v", summary.Outcome)
	}
	if want := cfg.ArchivePath("1.20.5", 6); summary.Archive.Path != want {
		t.Fatalf("archive path = %s, want %s", summary.Archive.Path, want)
	}

	files := readArchive(t, summary.Archive.Path)
	if len(files) != 4 {
		t.Fatalf("expected pack.mcmeta plus 3 sounds, got %d entries", len(files))
	}
	meta, err := pack.Metadata(32, 6)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if string(files[pack.MetadataName]) != string(meta) {
		t.Fatalf("unexpected pack.mcmeta %s", files[pack.MetadataName])
	}

	factor := audio.GainFactor(6)
	for _, path := range []string{"assets/minecraft/sounds/mob/cat/meow1.ogg", "assets/minecraft/sounds/mob/cat/meow2.ogg"} {
		data, ok := files[path]
		if !ok {
			t.Fatalf("missing %s", path)
		}
		got := testsupport.MustSample(data, 0, 0)
		if math.Abs(float64(got)-0.25*factor) > 1e-5 {
			t.Fatalf("%s sample = %f, want %f", path, got, 0.25*factor)
		}
	}
	if _, ok := files["assets/minecraft/lang/en_us.json"]; ok {
		t.Fatal("non-sound asset leaked into the pack")
	}
}

func TestBuildStrictPolicyLeavesNoArchive(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{
		ID:          "1.19",
		PackVersion: 9,
		Objects: map[string][]byte{
			"minecraft/sounds/good.ogg":   tone(0.5),
			"minecraft/sounds/broken.ogg": append([]byte(nil), testsupport.BadPayload...),
		},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))

	summary, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{Version: "1.19"})
	if !errors.Is(err, services.ErrPackaging) {
		t.Fatalf("expected packaging error, got %v", err)
	}
	var missing *pack.MissingResultError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingResultError, got %v", err)
	}
	if summary == nil || len(summary.Outcome.Failures) != 1 {
		t.Fatalf("expected summary with one failure, got %+v", summary)
	}
	if _, statErr := os.Stat(cfg.ArchivePath("1.19", 0)); !os.IsNotExist(statErr) {
		t.Fatalf("expected no archive, stat err = %v", statErr)
	}
}

func TestBuildAllowPartialSkipsFailedSounds(t *testing.T) {
	bad := append([]byte(nil), testsupport.BadPayload...)
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{
		ID:          "1.19",
		PackVersion: 9,
		Objects: map[string][]byte{
			"minecraft/sounds/good.ogg":    tone(0.5),
			"minecraft/sounds/broken1.ogg": bad,
			"minecraft/sounds/broken2.ogg": bad,
		},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher), testsupport.WithWorkers(4))

	summary, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{
		Version:      "release",
		AllowPartial: true,
		Output:       cfg.Output.Dir + "/partial.zip",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := summary.Archive.Skipped; len(got) != 2 ||
		got[0] != "assets/minecraft/sounds/broken1.ogg" || got[1] != "assets/minecraft/sounds/broken2.ogg" {
		t.Fatalf("unexpected skipped paths %v", got)
	}
	classes := summary.Outcome.FailureClasses()
	if classes["decode"] != 1 {
		t.Fatalf("expected one decode failure, got %v", classes)
	}
	files := readArchive(t, summary.Archive.Path)
	if _, ok := files["assets/minecraft/sounds/good.ogg"]; !ok || len(files) != 2 {
		t.Fatalf("unexpected archive contents %d entries", len(files))
	}
}

func TestBuildSkipPolicyFromConfig(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{
		ID:          "1.19",
		PackVersion: 9,
		Objects: map[string][]byte{
			"minecraft/sounds/good.ogg": tone(0.5),
			"minecraft/sounds/gone.ogg": tone(0.3),
		},
	})
	launcher.Assets.FailWith(testsupport.HashOf(tone(0.3)), 404)
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))
	cfg.Processing.MissingPolicy = config.MissingPolicySkip

	summary, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if classes := summary.Outcome.FailureClasses(); classes["network"] != 1 {
		t.Fatalf("expected one network failure, got %v", classes)
	}
	if len(summary.Archive.Skipped) != 1 {
		t.Fatalf("expected one skipped path, got %v", summary.Archive.Skipped)
	}
}

func TestBuildUnknownVersion(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{ID: "1.19", PackVersion: 9,
		Objects: map[string][]byte{"minecraft/sounds/a.ogg": tone(0.5)}})
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))

	_, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{Version: "0.0.1"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildMissingClientJar(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{ID: "1.19", PackVersion: 9,
		Objects: map[string][]byte{"minecraft/sounds/a.ogg": tone(0.5)}})
	launcher.Remove("/client/1.19.jar")
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))

	_, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{})
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestBuildPreflightStopsBeforeDownloads(t *testing.T) {
	sound := tone(0.5)
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{ID: "1.19", PackVersion: 9,
		Objects: map[string][]byte{"minecraft/sounds/a.ogg": sound}})
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))
	cfg.Codec.FFmpegBinary = "mineardmg-no-such-ffmpeg"
	cfg.Codec.FFprobeBinary = "mineardmg-no-such-ffprobe"

	_, err := workflow.New(cfg).Build(context.Background(), workflow.Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if n := launcher.Assets.Requests(testsupport.HashOf(sound)); n != 0 {
		t.Fatalf("expected no CDN requests after failed preflight, got %d", n)
	}
}

func TestBuildRejectsEmptySoundList(t *testing.T) {
	launcher := testsupport.NewLauncher(t, testsupport.LauncherVersion{ID: "1.19", PackVersion: 9,
		Objects: map[string][]byte{"minecraft/lang/en_us.json": []byte("{}")}})
	cfg := testsupport.NewConfig(t, testsupport.WithLauncher(launcher))

	_, err := pcmBuilder(cfg).Build(context.Background(), workflow.Request{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
