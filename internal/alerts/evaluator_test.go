package alerts

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

type fakeNotifier struct {
	sent []models.AlertKind
	fail bool
}

func (f *fakeNotifier) Notify(kind models.AlertKind, _ models.Severity, _ float64) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, kind)
	return nil
}

func testEvaluator(n Notifier) *Evaluator {
	cfg := config.DefaultConfig()
	return NewEvaluator(cfg.Thresholds, cfg.Timers.AlertCooldown.Duration, n, zap.NewNop())
}

func validReadingAt(v float64) models.Reading {
	return models.Reading{Value: v, Valid: true}
}

func normalSnapshot() models.Snapshot {
	return models.Snapshot{
		TempCompressor: validReadingAt(70),
		Voltage:        validReadingAt(230),
		Current:        validReadingAt(8.5),
		PressureHigh:   validReadingAt(280),
		PressureLow:    validReadingAt(70),
	}
}

func TestCheckVoltage_Directional(t *testing.T) {
	th := config.DefaultConfig().Thresholds.Voltage

	cases := []struct {
		v    float64
		sev  models.Severity
		kind models.AlertKind
	}{
		{252, models.SeverityCritical, models.AlertVoltageHigh},
		{247, models.SeverityWarning, models.AlertVoltageHigh},
		{230, models.SeverityOk, models.AlertVoltageHigh},
		{213, models.SeverityWarning, models.AlertVoltageLow},
		{208, models.SeverityCritical, models.AlertVoltageLow},
	}
	for _, tc := range cases {
		sev, kind := CheckVoltage(tc.v, th)
		if sev != tc.sev {
			t.Errorf("CheckVoltage(%v) severity = %v, want %v", tc.v, sev, tc.sev)
		}
		if sev != models.SeverityOk && kind != tc.kind {
			t.Errorf("CheckVoltage(%v) kind = %v, want %v", tc.v, kind, tc.kind)
		}
	}
}

func TestCheckPressureLow_DangerBelow(t *testing.T) {
	b := config.Band{Warning: 40, Critical: 20}
	if sev := CheckPressureLow(15, b); sev != models.SeverityCritical {
		t.Errorf("15 PSI: %v, want CRITICAL", sev)
	}
	if sev := CheckPressureLow(35, b); sev != models.SeverityWarning {
		t.Errorf("35 PSI: %v, want WARNING", sev)
	}
	if sev := CheckPressureLow(70, b); sev != models.SeverityOk {
		t.Errorf("70 PSI: %v, want OK", sev)
	}
}

func TestCheckAll_CriticalVoltageNotifiesOnceInWindow(t *testing.T) {
	n := &fakeNotifier{}
	e := testEvaluator(n)

	clock := time.Unix(1000, 0)
	e.now = func() time.Time { return clock }

	// 252V with warning=245, critical=250: Critical, notification fires.
	snap := normalSnapshot()
	snap.Voltage = validReadingAt(252)
	e.CheckAll(&snap)

	if snap.Voltage.Severity != models.SeverityCritical {
		t.Fatalf("severity = %v, want CRITICAL", snap.Voltage.Severity)
	}
	if len(n.sent) != 1 || n.sent[0] != models.AlertVoltageHigh {
		t.Fatalf("sent = %v, want one HIGH VOLTAGE", n.sent)
	}

	// Same reading 10s later, 5m window: no second notification.
	clock = clock.Add(10 * time.Second)
	snap2 := normalSnapshot()
	snap2.Voltage = validReadingAt(252)
	e.CheckAll(&snap2)

	if len(n.sent) != 1 {
		t.Errorf("sent = %v, want still one notification", n.sent)
	}

	// After the window expires it fires again.
	clock = clock.Add(5 * time.Minute)
	snap3 := normalSnapshot()
	snap3.Voltage = validReadingAt(252)
	e.CheckAll(&snap3)

	if len(n.sent) != 2 {
		t.Errorf("sent = %v, want two notifications after window", n.sent)
	}
}

func TestCheckAll_OkClearsActiveButNotCooldownClock(t *testing.T) {
	n := &fakeNotifier{}
	e := testEvaluator(n)

	clock := time.Unix(1000, 0)
	e.now = func() time.Time { return clock }

	snap := normalSnapshot()
	snap.TempCompressor = validReadingAt(96)
	e.CheckAll(&snap)
	if len(n.sent) != 1 {
		t.Fatalf("sent = %v, want one notification", n.sent)
	}
	if !e.table.Active(models.AlertCompressorTemp) {
		t.Fatal("condition should be active")
	}

	// Condition recovers: active clears.
	clock = clock.Add(30 * time.Second)
	ok := normalSnapshot()
	e.CheckAll(&ok)
	if e.table.Active(models.AlertCompressorTemp) {
		t.Fatal("condition should have cleared")
	}

	// A new Critical excursion inside the original window stays gated:
	// the Ok period did not reset the notification clock.
	clock = clock.Add(30 * time.Second)
	again := normalSnapshot()
	again.TempCompressor = validReadingAt(97)
	e.CheckAll(&again)
	if len(n.sent) != 1 {
		t.Errorf("sent = %v, want still one notification within window", n.sent)
	}
}

func TestCheckAll_WarningNeverNotifies(t *testing.T) {
	n := &fakeNotifier{}
	e := testEvaluator(n)

	snap := normalSnapshot()
	snap.Current = validReadingAt(13) // warning=12, critical=15
	e.CheckAll(&snap)

	if snap.Current.Severity != models.SeverityWarning {
		t.Fatalf("severity = %v, want WARNING", snap.Current.Severity)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent = %v, want none for warning", n.sent)
	}
}

func TestCheckAll_InvalidReadingSkipped(t *testing.T) {
	n := &fakeNotifier{}
	e := testEvaluator(n)

	snap := normalSnapshot()
	snap.TempCompressor = models.Reading{Value: 400, Valid: false}
	e.CheckAll(&snap)

	if snap.TempCompressor.Severity != models.SeverityOk {
		t.Errorf("severity = %v, want OK for invalid reading", snap.TempCompressor.Severity)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent = %v, want none for invalid reading", n.sent)
	}
}

func TestCheckAll_FailedSendRetriesNextCycle(t *testing.T) {
	n := &fakeNotifier{fail: true}
	e := testEvaluator(n)

	clock := time.Unix(1000, 0)
	e.now = func() time.Time { return clock }

	snap := normalSnapshot()
	snap.Current = validReadingAt(16)
	e.CheckAll(&snap)

	// Delivery failed: cooldown must not have been recorded.
	n.fail = false
	clock = clock.Add(10 * time.Second)
	snap2 := normalSnapshot()
	snap2.Current = validReadingAt(16)
	e.CheckAll(&snap2)

	if len(n.sent) != 1 {
		t.Errorf("sent = %v, want retry to succeed immediately", n.sent)
	}
}

func TestCooldown_ClockWraparoundTreatedAsExpired(t *testing.T) {
	table := NewCooldownTable(5 * time.Minute)
	now := time.Unix(10000, 0)
	table.RecordNotified(models.AlertOvercurrent, now)

	// Clock moved backwards past the stored timestamp.
	past := now.Add(-1 * time.Hour)
	if !table.CanNotify(models.AlertOvercurrent, past) {
		t.Error("wraparound should count as an expired cooldown")
	}
	// The stored timestamp was discarded, so the next check also passes.
	if !table.CanNotify(models.AlertOvercurrent, past.Add(time.Second)) {
		t.Error("stored timestamp should have been reset")
	}
}

func TestSummary(t *testing.T) {
	table := NewCooldownTable(time.Minute)
	if got := table.Summary(); got != "No active alerts" {
		t.Errorf("Summary = %q", got)
	}

	table.RecordNotified(models.AlertVoltageHigh, time.Unix(0, 1))
	table.RecordNotified(models.AlertOvercurrent, time.Unix(0, 1))
	want := "Active alerts: HIGH VOLTAGE, OVERCURRENT"
	if got := table.Summary(); got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
