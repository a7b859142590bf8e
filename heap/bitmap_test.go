package heap

import "testing"

func TestBitmapMarkAndQuery(t *testing.T) {
	b := NewMarkBitmap(4096)

	addrs := []Address{0, 4, 256, 1020, 4092}
	for _, a := range addrs {
		b.Mark(a)
	}

	for _, a := range addrs {
		if !b.IsMarked(a) {
			t.Errorf("address %#x should be marked", a)
		}
	}
	if b.IsMarked(8) {
		t.Error("address 0x8 should not be marked")
	}
}

func TestBitmapMarkUnalignedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("marking an unaligned address should panic")
		}
	}()

	b := NewMarkBitmap(4096)
	b.Mark(2)
}

func TestBitmapNextMarked(t *testing.T) {
	b := NewMarkBitmap(8192)
	b.Mark(16)
	b.Mark(260) // Crosses the first 64-bit bitmap word
	b.Mark(4096)

	tests := []struct {
		start, limit Address
		want         Address
		found        bool
	}{
		{0, 8192, 16, true},
		{16, 8192, 16, true},
		{20, 8192, 260, true},
		{264, 8192, 4096, true},
		{4100, 8192, 0, false},
		{0, 16, 0, false},  // Limit excludes the first mark
		{0, 20, 16, true},  // Limit includes it
		{300, 300, 0, false},
	}

	for _, tt := range tests {
		got, found := b.NextMarked(tt.start, tt.limit)
		if found != tt.found || got != tt.want {
			t.Errorf("NextMarked(%#x, %#x) = (%#x, %v), want (%#x, %v)",
				tt.start, tt.limit, got, found, tt.want, tt.found)
		}
	}
}

func TestBitmapNextMarkedAscending(t *testing.T) {
	b := NewMarkBitmap(4096)
	marks := []Address{8, 12, 64, 500, 1024, 2048}
	for _, a := range marks {
		b.Mark(a)
	}

	var got []Address
	addr, ok := b.NextMarked(0, 4096)
	for ok {
		got = append(got, addr)
		addr, ok = b.NextMarked(addr+WordSize, 4096)
	}

	if len(got) != len(marks) {
		t.Fatalf("found %d marks, want %d", len(got), len(marks))
	}
	for i := range marks {
		if got[i] != marks[i] {
			t.Errorf("mark %d: got %#x, want %#x", i, got[i], marks[i])
		}
	}
}

func TestBitmapClearRange(t *testing.T) {
	b := NewMarkBitmap(4096)
	for a := Address(0); a < 4096; a += WordSize {
		b.Mark(a)
	}

	b.ClearRange(256, 512)

	if !b.IsRangeClear(256, 512) {
		t.Error("cleared range still has marks")
	}
	if !b.IsMarked(252) {
		t.Error("mark just below the cleared range was lost")
	}
	if !b.IsMarked(512) {
		t.Error("mark at the exclusive end of the cleared range was lost")
	}
}

func TestBitmapClearRangeWithinOneWord(t *testing.T) {
	b := NewMarkBitmap(1024)
	b.Mark(0)
	b.Mark(8)
	b.Mark(16)

	b.ClearRange(8, 12)

	if b.IsMarked(8) {
		t.Error("mark inside cleared range survived")
	}
	if !b.IsMarked(0) || !b.IsMarked(16) {
		t.Error("marks outside cleared range were lost")
	}
}

func BenchmarkBitmapNextMarked(b *testing.B) {
	bm := NewMarkBitmap(1 << 20)
	for a := Address(0); a < 1<<20; a += 128 {
		bm.Mark(a)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		addr, ok := bm.NextMarked(0, 1<<20)
		for ok {
			addr, ok = bm.NextMarked(addr+WordSize, 1<<20)
		}
	}
}
