package coordinator

import "fmt"

// Stats is the JSON document served at GET /eoss/v1/stats (spec.md §6).
type Stats struct {
	TotalObjects             int64  `json:"total_number_objects"`
	TotalStorageUsage        int64  `json:"total_storage_usage"`
	YoungestObjectUpdated    *int64 `json:"youngest_object_updated_timestamp"`
	OldestObjectUpdated      *int64 `json:"oldest_object_updated_timestamp"`
	NumberObjectUploaded     int64  `json:"number_object_uploaded"`
	NumberObjectUploadInit   int64  `json:"number_object_upload_init"`
	NumberObjectSavedTemp    int64  `json:"number_object_saved_in_temp_name"`
}

// Stats scans every metadata row and aggregates the counters above. It is
// O(n) in the number of rows; spec.md explicitly excludes a global listing
// API but does require this one aggregate view.
func (c *Coordinator) Stats() (Stats, error) {
	s, err := c.pool.NewSession()
	if err != nil {
		return Stats{}, err
	}
	defer s.Close()

	rows, err := s.Query(fmt.Sprintf("SELECT size, timestamp, state FROM %s", c.table()))
	if err != nil {
		return Stats{}, err
	}

	var out Stats
	for _, row := range rows {
		state, _ := asInt64(row["state"])
		switch state {
		case stateClosed:
			out.NumberObjectUploaded++
			if size, ok := asInt64(row["size"]); ok {
				out.TotalStorageUsage += size
			}
			if ts, ok := asInt64(row["timestamp"]); ok {
				if out.YoungestObjectUpdated == nil || ts > *out.YoungestObjectUpdated {
					v := ts
					out.YoungestObjectUpdated = &v
				}
				if out.OldestObjectUpdated == nil || ts < *out.OldestObjectUpdated {
					v := ts
					out.OldestObjectUpdated = &v
				}
			}
		case stateInit:
			out.NumberObjectUploadInit++
		case stateStaged:
			out.NumberObjectSavedTemp++
		}
	}
	out.TotalObjects = int64(len(rows))

	return out, nil
}
