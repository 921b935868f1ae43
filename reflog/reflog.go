// Package reflog implements the append-only, JSON-lines log of workspace
// state transitions and the HEAD ref that names the current state.
package reflog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/layout"
)

// Op names the kind of operation a reflog entry records.
type Op string

const (
	OpInit        Op = "Init"
	OpAdd         Op = "Add"
	OpRemove      Op = "Remove"
	OpMaterialize Op = "Materialize"
	OpMerge       Op = "Merge"
	OpRollback    Op = "Rollback"
)

// Entry is one reflog line: a workspace-state transition.
type Entry struct {
	Actor   string
	Op      Op
	Message string
	Old     string // "state:<id>", empty if none
	New     string // "state:<id>"
	Paths   []string
	Time    time.Time
}

// StateRef formats id as the "state:<id>" reference form.
func StateRef(id string) string {
	if id == "" {
		return ""
	}
	return "state:" + id
}

// StateID extracts the id out of a "state:<id>" reference, or "" if ref is
// empty or malformed.
func StateID(ref string) string {
	id, ok := strings.CutPrefix(ref, "state:")
	if !ok {
		return ""
	}
	return id
}

type wireEntry struct {
	Actor   string   `json:"actor"`
	Op      string   `json:"op"`
	Message string   `json:"message,omitempty"`
	Old     string   `json:"old,omitempty"`
	New     string   `json:"new"`
	Paths   []string `json:"paths"`
	Time    string   `json:"ts"`
}

func toWire(e Entry) wireEntry {
	return wireEntry{
		Actor:   e.Actor,
		Op:      string(e.Op),
		Message: e.Message,
		Old:     e.Old,
		New:     e.New,
		Paths:   e.Paths,
		Time:    e.Time.UTC().Format(time.RFC3339),
	}
}

func fromWire(w wireEntry) (Entry, error) {
	t, err := time.Parse(time.RFC3339, w.Time)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Actor:   w.Actor,
		Op:      Op(w.Op),
		Message: w.Message,
		Old:     w.Old,
		New:     w.New,
		Paths:   w.Paths,
		Time:    t,
	}, nil
}

// Log operates on the reflog and HEAD ref rooted at a layout.
type Log struct {
	Layout layout.Layout
}

// New returns a Log rooted at l.
func New(l layout.Layout) *Log {
	return &Log{Layout: l}
}

// ReadHead returns the current HEAD state id, or "" if none is recorded.
func (lg *Log) ReadHead() (string, error) {
	data, err := os.ReadFile(lg.Layout.HeadPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", dvserr.Wrap(dvserr.IOError, "reading HEAD", err).WithPath(lg.Layout.HeadPath())
	}
	id := strings.TrimSpace(string(data))
	return id, nil
}

// UpdateHead writes id as the new HEAD.
func (lg *Log) UpdateHead(id string) error {
	if err := atomicfile.WriteBytes(lg.Layout.HeadPath(), []byte(id+"\n"), 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing HEAD", err).WithPath(lg.Layout.HeadPath())
	}
	return nil
}

// Append adds e as the newest line of the reflog.
func (lg *Log) Append(e Entry) error {
	data, err := json.Marshal(toWire(e))
	if err != nil {
		return dvserr.Wrap(dvserr.JSONError, "encoding reflog entry", err)
	}
	path := lg.Layout.ReflogPath()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "opening reflog", err).WithPath(path)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return dvserr.Wrap(dvserr.IOError, "appending reflog entry", err).WithPath(path)
	}
	return nil
}

// ReadAll returns every entry, oldest first, silently skipping malformed
// lines wherever they occur.
func (lg *Log) ReadAll() ([]Entry, error) {
	f, err := os.Open(lg.Layout.ReflogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dvserr.Wrap(dvserr.IOError, "opening reflog", err).WithPath(lg.Layout.ReflogPath())
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var w wireEntry
		if err := json.Unmarshal(line, &w); err != nil {
			continue
		}
		e, err := fromWire(w)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ReadRecent returns every entry, newest first.
func (lg *Log) ReadRecent() ([]Entry, error) {
	all, err := lg.ReadAll()
	if err != nil {
		return nil, err
	}
	reversed := make([]Entry, len(all))
	for i, e := range all {
		reversed[len(all)-1-i] = e
	}
	return reversed, nil
}

// Recent returns up to n entries, newest first.
func (lg *Log) Recent(n int) ([]Entry, error) {
	recent, err := lg.ReadRecent()
	if err != nil {
		return nil, err
	}
	if n < len(recent) {
		recent = recent[:n]
	}
	return recent, nil
}

// GetByIndex returns the i-th most recent entry (0 is newest).
func (lg *Log) GetByIndex(i int) (Entry, error) {
	recent, err := lg.ReadRecent()
	if err != nil {
		return Entry{}, err
	}
	if i < 0 || i >= len(recent) {
		return Entry{}, dvserr.New(dvserr.NotFound, fmt.Sprintf("reflog has no entry at index %d", i))
	}
	return recent[i], nil
}

// Record combines UpdateHead and Append into the caller-visible single
// step the spec calls "record": write the new HEAD, then append the
// transition that produced it. old and new are "state:<id>" references;
// HEAD receives the bare id.
func (lg *Log) Record(actor string, op Op, message, old, new string, paths []string) error {
	if err := lg.UpdateHead(strings.TrimPrefix(new, "state:")); err != nil {
		return err
	}
	return lg.Append(Entry{
		Actor:   actor,
		Op:      op,
		Message: message,
		Old:     old,
		New:     new,
		Paths:   paths,
		Time:    time.Now().UTC(),
	})
}
