package preflight

import "testing"

func TestSelectAAC_PrefersLibFDK(t *testing.T) {
	set := BackendSet{
		FFmpeg: FFmpegStatus{Available: true, HasLibFDKAAC: true, Path: "/usr/bin/ffmpeg", Version: "ffmpeg 6.0"},
		QAAC:   externalCLIStatus{Available: true, Path: "/usr/bin/qaac"},
	}
	sel, err := Select(set, "aac", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Backend != BackendLibFDKAAC {
		t.Errorf("expected libfdk_aac, got %s", sel.Backend)
	}
}

func TestSelectAAC_FallsBackToQAAC(t *testing.T) {
	set := BackendSet{
		FFmpeg: FFmpegStatus{Available: true, HasLibFDKAAC: false},
		QAAC:   externalCLIStatus{Available: true, Path: "/usr/bin/qaac"},
	}
	sel, err := Select(set, "aac", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Backend != BackendQAAC {
		t.Errorf("expected qaac, got %s", sel.Backend)
	}
}

func TestSelectAAC_NoneAvailable(t *testing.T) {
	_, err := Select(BackendSet{}, "aac", "")
	if _, ok := err.(ErrNoEncoder); !ok {
		t.Fatalf("expected ErrNoEncoder, got %v", err)
	}
}

func TestSelectAAC_OverrideWins(t *testing.T) {
	set := BackendSet{
		FFmpeg: FFmpegStatus{Available: true, HasLibFDKAAC: true},
		FDKAAC: externalCLIStatus{Available: true, Path: "/usr/bin/fdkaac"},
	}
	sel, err := Select(set, "aac", BackendFDKAAC)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Backend != BackendFDKAAC {
		t.Errorf("expected override fdkaac to win, got %s", sel.Backend)
	}
}

func TestSelectOpus(t *testing.T) {
	set := BackendSet{FFmpeg: FFmpegStatus{Available: true, HasLibOpus: true, Path: "/usr/bin/ffmpeg"}}
	sel, err := Select(set, "opus", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Backend != BackendLibOpus {
		t.Errorf("expected libopus, got %s", sel.Backend)
	}
}

func TestSelectOpus_Unavailable(t *testing.T) {
	_, err := Select(BackendSet{FFmpeg: FFmpegStatus{Available: true, HasLibOpus: false}}, "opus", "")
	if _, ok := err.(ErrNoEncoder); !ok {
		t.Fatalf("expected ErrNoEncoder, got %v", err)
	}
}
