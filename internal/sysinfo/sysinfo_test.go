package sysinfo

import "testing"

func TestCaptureReturnsSaneMemoryReading(t *testing.T) {
	snap, err := Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	t.Logf("CPU: %.1f%%, memory: %.2f/%.2f GB, goroutines: %d", snap.CPUPercent, snap.MemoryUsedGB, snap.MemoryTotalGB, snap.Goroutines)

	if snap.MemoryTotalGB <= 0 {
		t.Error("total memory is 0 - detection failed")
	}
	if snap.MemoryUsedGB > snap.MemoryTotalGB {
		t.Errorf("used memory (%.2fGB) greater than total (%.2fGB)", snap.MemoryUsedGB, snap.MemoryTotalGB)
	}
	if snap.Goroutines < 1 {
		t.Error("goroutine count should be at least 1 (the test itself)")
	}
}
