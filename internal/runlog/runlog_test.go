package runlog

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/emit"
)

func testRun(id string) Run {
	started := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return Run{
		RunID:     id,
		Started:   started,
		Finished:  started.Add(3 * time.Second),
		Outcome:   "clean",
		Records:   4,
		Published: 4,
	}
}

func TestRecordAndHistory(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	artifacts := []emit.Artifact{
		{Dest: "data/tutorial.json", Bytes: []byte(`[]`)},
		{Dest: "admin/config.yml", Bytes: []byte("collections: []\n")},
	}

	changed, err := store.Record(ctx, testRun("run-1"), artifacts)
	if err != nil {
		t.Fatalf("failed to record run: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("expected every artifact changed on first run, got %v", changed)
	}

	entries, err := store.History(ctx, 10)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.RunID != "run-1" {
		t.Errorf("expected run_id run-1, got %s", e.RunID)
	}
	if e.Outcome != "clean" {
		t.Errorf("expected outcome clean, got %s", e.Outcome)
	}
	if e.Records != 4 || e.Published != 4 {
		t.Errorf("expected records=4 published=4, got %d/%d", e.Records, e.Published)
	}
	if e.Changed != 2 {
		t.Errorf("expected changed=2, got %d", e.Changed)
	}
	if !e.Started.Equal(testRun("run-1").Started) {
		t.Errorf("expected started %v, got %v", testRun("run-1").Started, e.Started)
	}
}

func TestRecordDetectsChangedArtifacts(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	first := []emit.Artifact{
		{Dest: "data/tutorial.json", Bytes: []byte(`[{"slug":"a"}]`)},
		{Dest: "data/workshop.json", Bytes: []byte(`[]`)},
	}
	if _, err := store.Record(ctx, testRun("run-1"), first); err != nil {
		t.Fatalf("failed to record first run: %v", err)
	}

	second := []emit.Artifact{
		{Dest: "data/tutorial.json", Bytes: []byte(`[{"slug":"a"},{"slug":"b"}]`)},
		{Dest: "data/workshop.json", Bytes: []byte(`[]`)},
	}
	changed, err := store.Record(ctx, testRun("run-2"), second)
	if err != nil {
		t.Fatalf("failed to record second run: %v", err)
	}

	if len(changed) != 1 || changed[0] != "data/tutorial.json" {
		t.Fatalf("expected only tutorial.json changed, got %v", changed)
	}
}

func TestRecordIdenticalArtifactsReportNoChange(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	artifacts := []emit.Artifact{{Dest: "data/tutorial.json", Bytes: []byte(`[]`)}}

	if _, err := store.Record(ctx, testRun("run-1"), artifacts); err != nil {
		t.Fatalf("failed to record first run: %v", err)
	}
	changed, err := store.Record(ctx, testRun("run-2"), artifacts)
	if err != nil {
		t.Fatalf("failed to record second run: %v", err)
	}

	if len(changed) != 0 {
		t.Fatalf("expected no changes, got %v", changed)
	}

	entries, err := store.History(ctx, 1)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if entries[0].RunID != "run-2" {
		t.Errorf("expected newest run first, got %s", entries[0].RunID)
	}
	if entries[0].Changed != 0 {
		t.Errorf("expected changed=0, got %d", entries[0].Changed)
	}
}

func TestHistoryRespectsLimit(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if _, err := store.Record(ctx, testRun(id), nil); err != nil {
			t.Fatalf("failed to record %s: %v", id, err)
		}
	}

	entries, err := store.History(ctx, 2)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-3" || entries[1].RunID != "run-2" {
		t.Errorf("expected newest-first order, got %s then %s", entries[0].RunID, entries[1].RunID)
	}
}

func TestArtifactHashesRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	artifacts := []emit.Artifact{
		{Dest: "data/tutorial.json", Bytes: []byte(`[]`)},
		{Dest: "admin/config.yml", Bytes: []byte("collections: []\n")},
	}
	if _, err := store.Record(ctx, testRun("run-1"), artifacts); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}

	hashes, err := store.ArtifactHashes(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to read hashes: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(hashes))
	}
	for dest, hash := range hashes {
		if len(hash) != 64 {
			t.Errorf("expected sha256 hex for %s, got %q", dest, hash)
		}
	}
}
