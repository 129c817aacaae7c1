package export

import (
	"encoding/json"
	"fmt"
	"io"

	"carteira/internal/core"
)

// WriteBackupJSON writes b as an indented JSON document.
func WriteBackupJSON(w io.Writer, b core.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup %s: %w", b.ID, err)
	}
	return nil
}

// ReadBackupJSON decodes a document written by WriteBackupJSON.
func ReadBackupJSON(r io.Reader) (core.Backup, error) {
	var b core.Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return core.Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	if b.UserID == "" {
		return core.Backup{}, core.NewValidationError("backup", "missing userId")
	}
	return b, nil
}
