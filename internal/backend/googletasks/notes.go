package googletasks

import (
	"encoding/json"
	"strings"
	"time"

	"taskmgr/internal/store"
)

// notesMarker separates the user's description from the metadata block.
const notesMarker = "\n-- taskmgr --\n"

// metadata holds the task fields Google Tasks cannot represent.
type metadata struct {
	ID             string     `json:"id"`
	Priority       int        `json:"p"`
	Order          int        `json:"o"`
	Due            *time.Time `json:"due,omitempty"`
	HasDescription bool       `json:"d,omitempty"`
	Seq            int64      `json:"s"`
}

func encodeNotes(t store.Task, seq int64) string {
	meta := metadata{
		ID:             t.ID,
		Priority:       int(t.Priority),
		Order:          t.Order,
		Due:            store.NormalizeDue(t.DueDate),
		HasDescription: t.Description != nil,
		Seq:            seq,
	}
	data, _ := json.Marshal(meta)

	var b strings.Builder
	if t.Description != nil {
		b.WriteString(*t.Description)
	}
	b.WriteString(notesMarker)
	b.Write(data)
	return b.String()
}

// decodeNotes splits notes into description and metadata. ok is false for
// tasks created outside taskmgr.
func decodeNotes(notes string) (desc string, meta metadata, ok bool) {
	i := strings.LastIndex(notes, notesMarker)
	if i < 0 {
		return notes, metadata{}, false
	}
	if err := json.Unmarshal([]byte(notes[i+len(notesMarker):]), &meta); err != nil || meta.ID == "" {
		return notes, metadata{}, false
	}
	return notes[:i], meta, true
}
