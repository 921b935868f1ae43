// Package audit implements the hash-chained, tamper-evident event log
// under .dvs/logs/audit.jsonl.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// Severity ranks an audit event's importance.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func parseSeverity(s string) Severity {
	switch s {
	case "warning":
		return SeverityWarning
	case "error":
		return SeverityError
	case "critical":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Entry is one audit-log record. Hash is never stored on disk; it is
// recomputed from the other fields when needed.
type Entry struct {
	Seq      uint64
	PrevHash string // "" for entry 0
	Actor    string
	Event    string
	Severity Severity
	Path     string
	Detail   string
	Time     time.Time
}

type wireEntry struct {
	Seq      uint64 `json:"seq"`
	PrevHash string `json:"prev_hash,omitempty"`
	Actor    string `json:"actor"`
	Event    string `json:"event"`
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Time     string `json:"ts"`
}

func toWire(e Entry) wireEntry {
	return wireEntry{
		Seq:      e.Seq,
		PrevHash: e.PrevHash,
		Actor:    e.Actor,
		Event:    e.Event,
		Severity: e.Severity.String(),
		Path:     e.Path,
		Detail:   e.Detail,
		Time:     e.Time.UTC().Format(time.RFC3339),
	}
}

func fromWire(w wireEntry) (Entry, error) {
	t, err := time.Parse(time.RFC3339, w.Time)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Seq:      w.Seq,
		PrevHash: w.PrevHash,
		Actor:    w.Actor,
		Event:    w.Event,
		Severity: parseSeverity(w.Severity),
		Path:     w.Path,
		Detail:   w.Detail,
		Time:     t,
	}, nil
}

// hashAlgo is the algorithm used for the chain's tamper-evidence digest.
const hashAlgo = oid.BLAKE3

// computeHash returns the chain hash of e: the digest of e's wire encoding
// with the hash itself (never stored) excluded from the computation.
func computeHash(e Entry) (string, error) {
	data, err := json.Marshal(toWire(e))
	if err != nil {
		return "", err
	}
	return oid.DigestBytes(data, hashAlgo)
}

// Log is an open handle on one audit-log file.
type Log struct {
	path     string
	lastSeq  int64 // -1 means no entries yet
	lastHash string
}

// Open loads path's existing state (highest seq and its hash), tolerating
// a missing file (treated as empty) and skipping malformed lines.
func Open(path string) (*Log, error) {
	lg := &Log{path: path, lastSeq: -1}
	entries, _, err := readAll(path, false)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		h, err := computeHash(e)
		if err != nil {
			return nil, err
		}
		lg.lastSeq = int64(e.Seq)
		lg.lastHash = h
	}
	return lg, nil
}

// Append writes e as the next entry, setting Seq and PrevHash to extend
// the chain.
func (lg *Log) Append(e Entry) error {
	e.Seq = uint64(lg.lastSeq + 1)
	e.PrevHash = lg.lastHash

	data, err := json.Marshal(toWire(e))
	if err != nil {
		return dvserr.Wrap(dvserr.JSONError, "encoding audit entry", err)
	}
	f, err := os.OpenFile(lg.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "opening audit log", err).WithPath(lg.path)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return dvserr.Wrap(dvserr.IOError, "appending audit entry", err).WithPath(lg.path)
	}

	h, err := computeHash(e)
	if err != nil {
		return err
	}
	lg.lastSeq = int64(e.Seq)
	lg.lastHash = h
	return nil
}

// QueryOptions filters Query results.
type QueryOptions struct {
	SeqAfter     uint64
	HasSeqAfter  bool
	MinSeverity  Severity
	Events       map[string]bool // nil means any event
	PathPrefix   string
	Limit        int
}

// AllEntries returns every well-formed entry in file order, skipping
// malformed lines (best-effort continuation).
func (lg *Log) AllEntries() ([]Entry, error) {
	entries, _, err := readAll(lg.path, false)
	return entries, err
}

// Query filters AllEntries by opts.
func (lg *Log) Query(opts QueryOptions) ([]Entry, error) {
	all, err := lg.AllEntries()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if opts.HasSeqAfter && e.Seq <= opts.SeqAfter {
			continue
		}
		if e.Severity < opts.MinSeverity {
			continue
		}
		if opts.Events != nil && !opts.Events[e.Event] {
			continue
		}
		if opts.PathPrefix != "" && !strings.HasPrefix(e.Path, opts.PathPrefix) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// VerifyChain re-walks the log and reports whether every consecutive pair
// satisfies the chain rule, failing (unlike normal load) on any malformed
// line, sequence gap, or hash mismatch.
func (lg *Log) VerifyChain() bool {
	_, ok, err := readAll(lg.path, true)
	return err == nil && ok
}

// readAll parses the file at path. When strict is true, any malformed
// line or chain-rule violation causes ok=false; otherwise such lines are
// silently skipped.
func readAll(path string, strict bool) ([]Entry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, true, nil
		}
		return nil, false, dvserr.Wrap(dvserr.IOError, "opening audit log", err).WithPath(path)
	}
	defer f.Close()

	var out []Entry
	var prevHash string
	var prevSeq int64 = -1
	ok := true

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var w wireEntry
		if err := json.Unmarshal(line, &w); err != nil {
			if strict {
				return out, false, nil
			}
			continue
		}
		e, err := fromWire(w)
		if err != nil {
			if strict {
				return out, false, nil
			}
			continue
		}
		if prevSeq >= 0 {
			if e.Seq != uint64(prevSeq+1) || e.PrevHash != prevHash {
				if strict {
					return out, false, nil
				}
				ok = false
			}
		}
		h, err := computeHash(e)
		if err != nil {
			if strict {
				return out, false, nil
			}
			continue
		}
		out = append(out, e)
		prevHash = h
		prevSeq = int64(e.Seq)
	}
	return out, ok, nil
}
