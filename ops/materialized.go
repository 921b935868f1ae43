package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// materializedEntry records the last OID materialized to a working path
// and when.
type materializedEntry struct {
	OID  oid.OID   `json:"-"`
	When time.Time `json:"-"`
}

type wireMaterializedEntry struct {
	OID  string `json:"oid"`
	When string `json:"when"`
}

// materializedState is the path -> last-materialized-OID bookkeeping map
// persisted at the layout's materialized.json.
type materializedState struct {
	entries map[string]materializedEntry
}

func newMaterializedState() *materializedState {
	return &materializedState{entries: make(map[string]materializedEntry)}
}

func loadMaterializedState(path string) (*materializedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newMaterializedState(), nil
		}
		return nil, dvserr.Wrap(dvserr.IOError, "reading materialized state", err).WithPath(path)
	}
	var wire map[string]wireMaterializedEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, dvserr.Wrap(dvserr.JSONError, "parsing materialized state", err).WithPath(path)
	}
	ms := newMaterializedState()
	for p, we := range wire {
		o, err := oid.Parse(we.OID)
		if err != nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, we.When)
		if err != nil {
			t = time.Time{}
		}
		ms.entries[p] = materializedEntry{OID: o, When: t}
	}
	return ms, nil
}

func (ms *materializedState) get(path string) (materializedEntry, bool) {
	e, ok := ms.entries[path]
	return e, ok
}

func (ms *materializedState) set(path string, o oid.OID) {
	ms.entries[path] = materializedEntry{OID: o, When: time.Now().UTC()}
}

func (ms *materializedState) save(path string) error {
	wire := make(map[string]wireMaterializedEntry, len(ms.entries))
	for p, e := range ms.entries {
		wire[p] = wireMaterializedEntry{OID: e.OID.String(), When: e.When.UTC().Format(time.RFC3339)}
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return dvserr.Wrap(dvserr.JSONError, "encoding materialized state", err).WithPath(path)
	}
	if err := atomicfile.WriteBytes(path, data, 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing materialized state", err).WithPath(path)
	}
	return nil
}
