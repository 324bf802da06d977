package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jimezsa/ghsearch/internal/models"
	"github.com/moby/sys/atomicwriter"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

const (
	FilePrefix      = "github_users_"
	timestampLayout = "20060102_150405"
)

// PersistenceError wraps a failed export write.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func WriteUsers(w io.Writer, users []models.User, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, users)
	case FormatTSV:
		return writeCSV(w, users, '\t')
	default:
		return writeCSV(w, users, ',')
	}
}

// FileName returns the export file name for a run started at now.
func FileName(now time.Time) string {
	return FilePrefix + now.Format(timestampLayout) + ".csv"
}

// SaveCSV writes users to a new timestamped CSV file in dir and returns its
// path. The file is either written completely or not at all.
func SaveCSV(dir string, users []models.User, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(now))

	var buf bytes.Buffer
	if err := writeCSV(&buf, users, ','); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := atomicwriter.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	return path, nil
}

func writeJSON(w io.Writer, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(users)
}

func writeCSV(w io.Writer, users []models.User, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, user := range users {
		if err := writer.Write(Row(user)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvHeader() []string {
	return []string{
		"Username",
		"Display Name",
		"Bio",
		"Location",
		"Followers",
	}
}

// Row flattens a user into the exported column order. Absent fields become
// empty strings, an absent follower count becomes 0.
func Row(user models.User) []string {
	return []string{
		user.Login,
		user.DisplayName(),
		user.BioText(),
		user.LocationText(),
		strconv.Itoa(user.FollowerCount()),
	}
}
