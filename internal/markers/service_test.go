package markers

import (
	"context"
	"errors"
	"testing"

	"github.com/couchpilot/couchpilot/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return NewService(tdb.Conn, tdb.Logger), tdb
}

func TestService_SetIntroMarkers_RoundTrip(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := service.SetIntroMarkers(ctx, "Show.S01", "1080p.mkv", 30, 90); err != nil {
		t.Fatalf("SetIntroMarkers() error = %v", err)
	}

	m, err := service.GetMarkers(ctx, "Show.S01", "1080p.mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m == nil {
		t.Fatal("GetMarkers() = nil after set")
	}
	if m.IntroStart == nil || *m.IntroStart != 30 {
		t.Errorf("IntroStart = %v, want 30", m.IntroStart)
	}
	if m.IntroEnd == nil || *m.IntroEnd != 90 {
		t.Errorf("IntroEnd = %v, want 90", m.IntroEnd)
	}
	if m.CreditsDuration != nil {
		t.Errorf("CreditsDuration = %v, want unset", m.CreditsDuration)
	}
}

func TestService_SetIntroMarkers_Validation(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		start   int64
		end     int64
		wantErr error
	}{
		{name: "end equals start", start: 30, end: 30, wantErr: ErrInvalidIntroRange},
		{name: "end before start", start: 90, end: 30, wantErr: ErrInvalidIntroRange},
		{name: "negative start", start: -1, end: 90, wantErr: ErrNegativeSeconds},
		{name: "negative end", start: 30, end: -90, wantErr: ErrNegativeSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.SetIntroMarkers(ctx, "Show.S01", "mkv", tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetIntroMarkers(%d, %d) error = %v, want %v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

func TestService_SetIntroMarkers_FailureLeavesPriorMarkers(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := service.SetIntroMarkers(ctx, "Show.S01", "mkv", 30, 90); err != nil {
		t.Fatalf("SetIntroMarkers() error = %v", err)
	}

	if err := service.SetIntroMarkers(ctx, "Show.S01", "mkv", 120, 60); !errors.Is(err, ErrInvalidIntroRange) {
		t.Fatalf("SetIntroMarkers() error = %v, want ErrInvalidIntroRange", err)
	}

	m, err := service.GetMarkers(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m.IntroStart == nil || *m.IntroStart != 30 || m.IntroEnd == nil || *m.IntroEnd != 90 {
		t.Errorf("markers = (%v, %v) after rejected write, want (30, 90) unchanged",
			m.IntroStart, m.IntroEnd)
	}
}

func TestService_SetCreditsDuration(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := service.SetCreditsDuration(ctx, "Show.S01", "mkv", 120); err != nil {
		t.Fatalf("SetCreditsDuration() error = %v", err)
	}

	m, err := service.GetMarkers(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m.CreditsDuration == nil || *m.CreditsDuration != 120 {
		t.Errorf("CreditsDuration = %v, want 120", m.CreditsDuration)
	}

	// The boundary is computed per encode from the same stored value.
	if start, ok := m.OutroStart(3600); !ok || start != 3480 {
		t.Errorf("OutroStart(3600) = (%d, %v), want (3480, true)", start, ok)
	}
	if start, ok := m.OutroStart(3700); !ok || start != 3580 {
		t.Errorf("OutroStart(3700) = (%d, %v), want (3580, true)", start, ok)
	}
}

func TestService_SetCreditsDuration_Negative(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()

	err := service.SetCreditsDuration(context.Background(), "Show.S01", "mkv", -5)
	if !errors.Is(err, ErrNegativeSeconds) {
		t.Errorf("SetCreditsDuration(-5) error = %v, want ErrNegativeSeconds", err)
	}
}

func TestService_GetMarkers_Absent(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()

	m, err := service.GetMarkers(context.Background(), "Nothing.S01", "mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m != nil {
		t.Errorf("GetMarkers() = %+v for absent series, want nil", m)
	}
}

func TestService_Flags_DefaultFalse(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()

	f, err := service.GetFlags(context.Background(), "Nothing.S01", "mkv")
	if err != nil {
		t.Fatalf("GetFlags() error = %v", err)
	}
	if f.Autoplay || f.SkipIntro || f.SkipOutro {
		t.Errorf("GetFlags() = %+v for absent series, want all false", f)
	}
}

func TestService_Flags_RoundTrip(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	want := Flags{Autoplay: true, SkipIntro: true, SkipOutro: false}
	if err := service.SetFlags(ctx, "Show.S01", "mkv", want); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}

	got, err := service.GetFlags(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("GetFlags() error = %v", err)
	}
	if got != want {
		t.Errorf("GetFlags() = %+v, want %+v", got, want)
	}
}

func TestService_SetFlags_PreservesMarkers(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := service.SetIntroMarkers(ctx, "Show.S01", "mkv", 30, 90); err != nil {
		t.Fatalf("SetIntroMarkers() error = %v", err)
	}
	if err := service.SetFlags(ctx, "Show.S01", "mkv", Flags{SkipIntro: true}); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}

	m, err := service.GetMarkers(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m.IntroStart == nil || *m.IntroStart != 30 {
		t.Errorf("IntroStart = %v after flags update, want 30 preserved", m.IntroStart)
	}
}

func TestService_SuffixScoping(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	// Different encodes of the same season keep separate marker rows.
	if err := service.SetIntroMarkers(ctx, "Show.S01", "1080p.mkv", 30, 90); err != nil {
		t.Fatalf("SetIntroMarkers() error = %v", err)
	}
	if err := service.SetIntroMarkers(ctx, "Show.S01", "720p.mkv", 25, 85); err != nil {
		t.Fatalf("SetIntroMarkers() error = %v", err)
	}

	m, err := service.GetMarkers(ctx, "Show.S01", "1080p.mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m.IntroStart == nil || *m.IntroStart != 30 {
		t.Errorf("IntroStart for 1080p = %v, want 30", m.IntroStart)
	}

	m, err = service.GetMarkers(ctx, "Show.S01", "720p.mkv")
	if err != nil {
		t.Fatalf("GetMarkers() error = %v", err)
	}
	if m.IntroStart == nil || *m.IntroStart != 25 {
		t.Errorf("IntroStart for 720p = %v, want 25", m.IntroStart)
	}
}

func TestService_SaveSettings_FullRow(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	settings := Settings{
		Flags: Flags{Autoplay: true, SkipIntro: true, SkipOutro: true},
		Markers: Markers{
			IntroStart:      testutil.Int64Ptr(15),
			IntroEnd:        testutil.Int64Ptr(75),
			CreditsDuration: testutil.Int64Ptr(90),
		},
	}
	if err := service.SaveSettings(ctx, "Show.S02", "mkv", settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, err := service.GetSettings(ctx, "Show.S02", "mkv")
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetSettings() = nil after save")
	}
	if got.Flags != settings.Flags {
		t.Errorf("Flags = %+v, want %+v", got.Flags, settings.Flags)
	}
	if got.IntroStart == nil || *got.IntroStart != 15 {
		t.Errorf("IntroStart = %v, want 15", got.IntroStart)
	}
	if got.CreditsDuration == nil || *got.CreditsDuration != 90 {
		t.Errorf("CreditsDuration = %v, want 90", got.CreditsDuration)
	}
}

func TestService_SaveSettings_Validation(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	// Intro markers are a pair: one without the other is rejected.
	err := service.SaveSettings(ctx, "Show.S02", "mkv", Settings{
		Markers: Markers{IntroStart: testutil.Int64Ptr(15)},
	})
	if !errors.Is(err, ErrInvalidIntroRange) {
		t.Errorf("SaveSettings(start only) error = %v, want ErrInvalidIntroRange", err)
	}

	err = service.SaveSettings(ctx, "Show.S02", "mkv", Settings{
		Markers: Markers{CreditsDuration: testutil.Int64Ptr(-1)},
	})
	if !errors.Is(err, ErrNegativeSeconds) {
		t.Errorf("SaveSettings(negative credits) error = %v, want ErrNegativeSeconds", err)
	}
}

func TestService_Exists(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	exists, err := service.Exists(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before any write, want false")
	}

	if err := service.SetFlags(ctx, "Show.S01", "mkv", Flags{}); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}

	exists, err = service.Exists(ctx, "Show.S01", "mkv")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after write, want true")
	}
}

func TestService_ClearMarkers(t *testing.T) {
	service, tdb := newTestService(t)
	defer tdb.Close()
	ctx := context.Background()

	seed := func(t *testing.T, prefix string) {
		t.Helper()
		if err := service.SetIntroMarkers(ctx, prefix, "mkv", 30, 90); err != nil {
			t.Fatalf("SetIntroMarkers() error = %v", err)
		}
		if err := service.SetCreditsDuration(ctx, prefix, "mkv", 120); err != nil {
			t.Fatalf("SetCreditsDuration() error = %v", err)
		}
	}

	t.Run("intro only", func(t *testing.T) {
		seed(t, "A.S01")
		if err := service.ClearMarkers(ctx, "A.S01", "mkv", KindIntro); err != nil {
			t.Fatalf("ClearMarkers() error = %v", err)
		}
		m, err := service.GetMarkers(ctx, "A.S01", "mkv")
		if err != nil {
			t.Fatalf("GetMarkers() error = %v", err)
		}
		if m.IntroStart != nil || m.IntroEnd != nil {
			t.Errorf("intro markers = (%v, %v), want cleared", m.IntroStart, m.IntroEnd)
		}
		if m.CreditsDuration == nil {
			t.Error("CreditsDuration cleared by intro clear, want preserved")
		}
	})

	t.Run("credits only", func(t *testing.T) {
		seed(t, "B.S01")
		if err := service.ClearMarkers(ctx, "B.S01", "mkv", KindCredits); err != nil {
			t.Fatalf("ClearMarkers() error = %v", err)
		}
		m, err := service.GetMarkers(ctx, "B.S01", "mkv")
		if err != nil {
			t.Fatalf("GetMarkers() error = %v", err)
		}
		if m.CreditsDuration != nil {
			t.Errorf("CreditsDuration = %v, want cleared", m.CreditsDuration)
		}
		if m.IntroStart == nil {
			t.Error("IntroStart cleared by credits clear, want preserved")
		}
	})

	t.Run("all", func(t *testing.T) {
		seed(t, "C.S01")
		if err := service.ClearMarkers(ctx, "C.S01", "mkv", KindAll); err != nil {
			t.Fatalf("ClearMarkers() error = %v", err)
		}
		m, err := service.GetMarkers(ctx, "C.S01", "mkv")
		if err != nil {
			t.Fatalf("GetMarkers() error = %v", err)
		}
		if m.IntroStart != nil || m.IntroEnd != nil || m.CreditsDuration != nil {
			t.Errorf("markers = %+v, want all cleared", m)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		err := service.ClearMarkers(ctx, "C.S01", "mkv", Kind("bogus"))
		if !errors.Is(err, ErrUnknownKind) {
			t.Errorf("ClearMarkers(bogus) error = %v, want ErrUnknownKind", err)
		}
	})
}
