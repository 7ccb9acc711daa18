package ta

import (
	"math"
	"testing"
)

func TestLast(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	if got := Last(s, 0); got != 5 {
		t.Errorf("Last(s, 0) = %f, want 5", got)
	}
	if got := Last(s, 2); got != 3 {
		t.Errorf("Last(s, 2) = %f, want 3", got)
	}
}

func TestLastValues(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	got := LastValues(s, 3)
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("LastValues(s, 3) = %v", got)
	}
	// 长度不足时返回原序列
	if got := LastValues(s, 10); len(got) != 5 {
		t.Errorf("LastValues(s, 10) = %v", got)
	}
}

func TestLowestHighest(t *testing.T) {
	s := []float64{5, 1, 9, 3, 7}
	if got := Lowest(s, 3); got != 3 {
		t.Errorf("Lowest(s, 3) = %f, want 3", got)
	}
	if got := Highest(s, 3); got != 9 {
		t.Errorf("Highest(s, 3) = %f, want 9", got)
	}
	if got := Lowest(s, 5); got != 1 {
		t.Errorf("Lowest(s, 5) = %f, want 1", got)
	}
}

func TestValid(t *testing.T) {
	if !Valid(1.5) || !Valid(0) || !Valid(-2) {
		t.Error("finite values should be valid")
	}
	if Valid(math.NaN()) {
		t.Error("NaN should be invalid")
	}
	if Valid(math.Inf(1)) || Valid(math.Inf(-1)) {
		t.Error("Inf should be invalid")
	}
}
