package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goldCloserBot/internal/ports"
)

func TestReadPositionsFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.csv")
	content := strings.Join([]string{
		"ticket,direction,volume,open_price,profit,opened_at",
		"1,LONG,0.1,2000,8.5,2026-08-01T10:00:00Z",
		"2,SHORT,0.05,1990,,2026-08-01T11:30:00Z",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	positions, err := ReadPositionsFromCSV(path)
	if err != nil {
		t.Fatalf("ReadPositionsFromCSV failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	p := positions[0]
	if p.Ticket != 1 || p.Direction != "LONG" || p.Volume != 0.1 || p.OpenPrice != 2000 {
		t.Errorf("unexpected first position %+v", p)
	}
	if p.Profit == nil || *p.Profit != 8.5 {
		t.Errorf("profit = %v, want 8.5", p.Profit)
	}
	if !p.OpenedAt.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("openedAt = %s", p.OpenedAt)
	}

	if positions[1].Profit != nil {
		t.Errorf("empty profit column must map to nil, got %v", *positions[1].Profit)
	}
}

func TestReadPositionsMalformedRow(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"bad ticket", "x,LONG,0.1,2000,8.5,2026-08-01T10:00:00Z"},
		{"bad volume", "1,LONG,heavy,2000,8.5,2026-08-01T10:00:00Z"},
		{"bad open price", "1,LONG,0.1,?,8.5,2026-08-01T10:00:00Z"},
		{"bad profit", "1,LONG,0.1,2000,much,2026-08-01T10:00:00Z"},
		{"bad opened_at", "1,LONG,0.1,2000,8.5,yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			content := "ticket,direction,volume,open_price,profit,opened_at\n" + tt.row
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if _, err := ReadPositionsFromCSV(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestReadPositionsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadPositionsFromCSV(path); err == nil {
		t.Errorf("expected error for empty file")
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	profit := 8.5
	original := []ports.OpenPosition{
		{Ticket: 1, Direction: "LONG", Volume: 0.1, OpenPrice: 2000.5, Profit: &profit,
			OpenedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{Ticket: 2, Direction: "SHORT", Volume: 0.05, OpenPrice: 1990,
			OpenedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)},
	}

	path := filepath.Join(t.TempDir(), "roundtrip.csv")
	if err := WritePositionsToCSV(original, path); err != nil {
		t.Fatalf("WritePositionsToCSV failed: %v", err)
	}

	got, err := ReadPositionsFromCSV(path)
	if err != nil {
		t.Fatalf("ReadPositionsFromCSV failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2", len(got))
	}
	if got[0].Ticket != 1 || *got[0].Profit != 8.5 || got[0].OpenPrice != 2000.5 {
		t.Errorf("first position %+v", got[0])
	}
	if got[1].Profit != nil {
		t.Errorf("nil profit must survive the round trip")
	}
	if !got[1].OpenedAt.Equal(original[1].OpenedAt) {
		t.Errorf("openedAt = %s, want %s", got[1].OpenedAt, original[1].OpenedAt)
	}
}
