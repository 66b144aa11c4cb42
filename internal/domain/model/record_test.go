package model

import "testing"

func TestRecordKey(t *testing.T) {
	a := Record{DriverID: "driver-a", Car: 1, Track: 2, Layout: 0, Condition: 0, Weather: 0}
	b := Record{DriverID: "driver-a", Car: 1, Track: 2}
	if a.Key() != b.Key() {
		t.Error("records with identical identity fields must share a key")
	}

	c := a
	c.Weather = 1
	if a.Key() == c.Key() {
		t.Error("a different weather code must produce a different key")
	}

	d := a
	d.DriverID = "driver-b"
	if a.Key() == d.Key() {
		t.Error("a different driver must produce a different key")
	}
}

func TestRecordHasGhost(t *testing.T) {
	var r Record
	if r.HasGhost() {
		t.Error("a fresh record must not report a ghost")
	}

	r.LocalPath = "ab.tsreplay"
	if !r.HasGhost() {
		t.Error("a local path must count as a ghost")
	}

	r.LocalPath = ""
	r.ObjectKey = "ghosts/ab.tsreplay"
	if !r.HasGhost() {
		t.Error("an object key must count as a ghost")
	}
}

func TestRecordLocator(t *testing.T) {
	r := Record{ObjectKey: "ghosts/ab.tsreplay", LocalPath: "ab.tsreplay"}
	if r.Locator() != "ghosts/ab.tsreplay" {
		t.Errorf("remote key must win when both are set, got %q", r.Locator())
	}

	r.ObjectKey = ""
	if r.Locator() != "ab.tsreplay" {
		t.Errorf("expected local path, got %q", r.Locator())
	}
}
