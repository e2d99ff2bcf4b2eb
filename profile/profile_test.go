package profile

import "testing"

func TestProfiler_StartWithoutMode(t *testing.T) {
	stop := Profiler{Dir: t.TempDir()}.Start()
	if _, ok := stop.(ignore); !ok {
		t.Errorf("expected no-op stopper, got %T", stop)
	}

	stop.Stop()
}

func TestProfiler_UnknownMode(t *testing.T) {
	if Enabled("nonsense") {
		t.Error("unknown mode reported as enabled")
	}

	stop := Profiler{Mode: "nonsense", Dir: t.TempDir(), Quiet: true}.Start()
	if _, ok := stop.(ignore); !ok {
		t.Errorf("expected no-op stopper, got %T", stop)
	}
}

func TestModes_Enabled(t *testing.T) {
	for _, m := range Modes() {
		if !Enabled(m) {
			t.Errorf("mode %q listed but not enabled", m)
		}
	}
}
