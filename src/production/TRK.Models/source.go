package trkmodels

// Source is a tracked device document. Beyond the mandatory "id"
// property, callers may attach arbitrary metadata via the source
// update endpoint, so the document stays an open property map.
type Source map[string]interface{}

// ID returns the source identifier, or "" when unset.
func (s Source) ID() string {
	id, _ := s["id"].(string)
	return id
}
