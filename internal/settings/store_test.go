package settings

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/openmux/statusd/internal/events"
)

func newTestStore(t *testing.T) (*Store, *events.Bus) {
	t.Helper()
	eventBus := events.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := Open(filepath.Join(t.TempDir(), "settings.db"), eventBus, logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, eventBus
}

type radioConfig struct {
	Channel  int    `json:"channel"`
	PanID    string `json:"pan_id"`
	TxPower  int    `json:"tx_power"`
	Extended bool   `json:"extended"`
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("network")

	want := radioConfig{Channel: 15, PanID: "0x1a62", TxPower: 8, Extended: true}
	if err := bucket.Put("radio", want); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, ok, err := Get[radioConfig](bucket, "radio")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected radio setting to exist")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("network")

	_, ok, err := Get[string](bucket, "nope")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Error("expected missing key to report absent")
	}
}

func TestStoreGetOrFallback(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("button")

	got, err := GetOr(bucket, "hold_threshold_ms", 3000)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != 3000 {
		t.Errorf("expected fallback 3000, got %d", got)
	}

	if err := bucket.Put("hold_threshold_ms", 5000); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err = GetOr(bucket, "hold_threshold_ms", 3000)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != 5000 {
		t.Errorf("expected stored 5000, got %d", got)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("network")

	if err := bucket.Put("joined", true); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	existed, err := bucket.Delete("joined")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !existed {
		t.Error("expected delete to report the key existed")
	}

	existed, err = bucket.Delete("joined")
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if existed {
		t.Error("expected second delete to report the key gone")
	}

	if _, ok, _ := Get[bool](bucket, "joined"); ok {
		t.Error("expected key to be gone after delete")
	}
}

func TestStoreKeysAndBuckets(t *testing.T) {
	store, _ := newTestStore(t)

	network := store.Bucket("network")
	update := store.Bucket("update")
	for key, value := range map[string]any{"channel": 15, "pan_id": "0x1a62"} {
		if err := network.Put(key, value); err != nil {
			t.Fatalf("put %s failed: %v", key, err)
		}
	}
	if err := update.Put("channel_name", "stable"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	keys, err := network.Keys()
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "channel" || keys[1] != "pan_id" {
		t.Errorf("expected sorted [channel pan_id], got %v", keys)
	}

	buckets, err := store.Buckets()
	if err != nil {
		t.Fatalf("buckets failed: %v", err)
	}
	if len(buckets) != 2 || buckets[0] != "network" || buckets[1] != "update" {
		t.Errorf("expected [network update], got %v", buckets)
	}
}

func TestStoreItems(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("network")

	if err := bucket.Put("channel", 15); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := bucket.Put("pan_id", "0x1a62"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	items, err := bucket.Items()
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if string(items["channel"]) != "15" {
		t.Errorf("expected raw 15, got %s", items["channel"])
	}
	if string(items["pan_id"]) != `"0x1a62"` {
		t.Errorf("expected raw %q, got %s", `"0x1a62"`, items["pan_id"])
	}
}

func TestStoreClearBucket(t *testing.T) {
	store, _ := newTestStore(t)

	network := store.Bucket("network")
	update := store.Bucket("update")
	if err := network.Put("channel", 15); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := update.Put("channel_name", "stable"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if err := network.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	keys, err := network.Keys()
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty bucket after clear, got %v", keys)
	}

	if _, ok, _ := Get[string](update, "channel_name"); !ok {
		t.Error("clear wiped an unrelated bucket")
	}
}

func TestStorePutRawRejectsInvalidJSON(t *testing.T) {
	store, _ := newTestStore(t)
	bucket := store.Bucket("network")

	if err := bucket.PutRaw("broken", []byte(`{"channel":`)); err == nil {
		t.Error("expected invalid JSON to be rejected")
	}
}

func TestStorePublishesChanges(t *testing.T) {
	store, eventBus := newTestStore(t)

	received := make(chan events.SettingChangedEvent, 4)
	unsub := eventBus.Subscribe(func(e events.SettingChangedEvent) {
		received <- e
	})
	defer unsub()

	if err := store.Bucket("network").Put("channel", 15); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	select {
	case e := <-received:
		if e.Bucket != "network" || e.Key != "channel" {
			t.Errorf("expected network/channel, got %s/%s", e.Bucket, e.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no setting change event received")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := Open(path, nil, logger)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := store.Bucket("network").Put("channel", 15); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	store, err = Open(path, nil, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	got, ok, err := Get[int](store.Bucket("network"), "channel")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || got != 15 {
		t.Errorf("expected persisted channel 15, got %d (present %v)", got, ok)
	}
}
