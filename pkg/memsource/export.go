package memsource

import (
	"encoding/csv"
	"net/http"
	"sort"
)

// serveExport writes every matched record, unpaginated, as CSV or JSON.
func (s *Source) serveExport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.Offset, q.Limit = 0, 0
	matched, err := s.query(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch r.URL.Query().Get("format") {
	case "json", "":
		writeJSON(w, http.StatusOK, map[string]any{"data": matched})
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		writer := csv.NewWriter(w)
		columns := columnsOf(matched)
		_ = writer.Write(columns)
		for _, record := range matched {
			line := make([]string, len(columns))
			for i, column := range columns {
				line[i] = text(record[column])
			}
			_ = writer.Write(line)
		}
		writer.Flush()
	default:
		writeError(w, http.StatusBadRequest, "unsupported export format")
	}
}

func columnsOf(records []Record) []string {
	seen := map[string]struct{}{}
	var columns []string
	for _, record := range records {
		for key := range record {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return columns
}
