package engine

import "time"

// StateRecord is one classification with its wall-clock time.
type StateRecord struct {
	State      GameState
	Sequence   uint64
	ObservedAt time.Time
}

// StateHistory is a fixed-size rolling window of recent classifications,
// kept by the loop for stuck-screen diagnosis.
type StateHistory struct {
	records  []StateRecord
	maxSize  int
	position int
}

// NewStateHistory creates a history window of the given capacity
func NewStateHistory(maxSize int) *StateHistory {
	return &StateHistory{
		records: make([]StateRecord, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add records a classification
func (h *StateHistory) Add(record StateRecord) {
	if len(h.records) < h.maxSize {
		h.records = append(h.records, record)
	} else {
		h.records[h.position] = record
		h.position = (h.position + 1) % h.maxSize
	}
}

// Recent returns the last n records, newest first
func (h *StateHistory) Recent(n int) []StateRecord {
	size := len(h.records)
	if n > size {
		n = size
	}

	recent := make([]StateRecord, 0, n)
	for i := 0; i < n; i++ {
		idx := h.position - 1 - i
		if len(h.records) < h.maxSize {
			idx = size - 1 - i
		}
		for idx < 0 {
			idx += size
		}
		recent = append(recent, h.records[idx])
	}

	return recent
}

// Last returns the most recent record, or a zero record if empty
func (h *StateHistory) Last() StateRecord {
	recent := h.Recent(1)
	if len(recent) == 0 {
		return StateRecord{State: StateUnknown}
	}
	return recent[0]
}

// ConsecutiveSame counts how many of the most recent records share the
// latest state, a cheap stuck-screen signal.
func (h *StateHistory) ConsecutiveSame() int {
	recent := h.Recent(len(h.records))
	if len(recent) == 0 {
		return 0
	}

	count := 1
	for i := 1; i < len(recent); i++ {
		if recent[i].State != recent[0].State {
			break
		}
		count++
	}
	return count
}
