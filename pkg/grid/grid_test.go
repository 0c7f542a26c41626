package grid

import (
	"image"
	"testing"
)

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 64 cols (Standard)
		{0, 64, 0, 0},
		{1, 64, 1, 0},
		{63, 64, 63, 0},
		{64, 64, 0, 1},
		{65, 64, 1, 1},
		{127, 64, 63, 1},
		{128, 64, 0, 2},
		{1023, 64, 63, 15},

		// 32 cols (Low Res)
		{0, 32, 0, 0},
		{31, 32, 31, 0},
		{32, 32, 0, 1},
		{63, 32, 31, 1},
		{1023, 32, 31, 31},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestScreenWrap(t *testing.T) {
	s := NewScreen(4, 0)
	s.Write([]byte("abcdef\nxy\tz"))
	want := []string{"abcd", "ef", "xy  ", "z"}
	got := s.Lines()
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q; want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestScreenKeepsRecentLines(t *testing.T) {
	s := NewScreen(10, 3)
	s.Write([]byte("1\n2\n3\n4\n5"))
	got := s.Lines()
	if len(got) != 3 || got[0] != "3" || got[2] != "5" {
		t.Errorf("Lines() = %q; want [3 4 5]", got)
	}
}

func TestScreenWindow(t *testing.T) {
	s := NewScreen(10, 0)
	s.Write([]byte("a\nb\nc\nd\ne"))

	tests := []struct {
		rows, scroll int
		want         string
	}{
		{2, 0, "de"},
		{2, 1, "cd"},
		{2, 10, "ab"},
		{2, -5, "de"},
		{9, 0, "abcde"},
	}
	for _, tc := range tests {
		got := ""
		for _, l := range s.Window(tc.rows, tc.scroll) {
			got += l
		}
		if got != tc.want {
			t.Errorf("Window(%d, %d) = %q; want %q", tc.rows, tc.scroll, got, tc.want)
		}
	}

	s.Reset()
	if l := s.Lines(); len(l) != 1 || l[0] != "" {
		t.Errorf("after Reset, Lines() = %q", l)
	}
}

func TestRasterize(t *testing.T) {
	cols := 4
	img := image.NewRGBA(image.Rect(0, 0, cols*CellWidth, 2*CellHeight))
	cells := make([]rune, cols*2)
	cells[5] = 'X' // column 1, row 1

	Rasterize(img, cells, cols)

	inked := func(cx, cy int) bool {
		for y := cy * CellHeight; y < (cy+1)*CellHeight; y++ {
			for x := cx * CellWidth; x < (cx+1)*CellWidth; x++ {
				if img.RGBAAt(x, y) != Background {
					return true
				}
			}
		}
		return false
	}
	for i := range cells {
		x, y := GetGridCoords(i, cols)
		if got, want := inked(x, y), i == 5; got != want {
			t.Errorf("cell (%d, %d) inked = %v, want %v", x, y, got, want)
		}
	}
}
