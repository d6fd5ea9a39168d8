package manifest

// FileSource loads the roster from a file on disk and writes its audit
// snapshots alongside it (or into SnapshotDir when set).
type FileSource struct {
	Path        string
	SnapshotDir string
}

// Load reads the roster file.
func (s FileSource) Load() ([]Row, error) {
	return Load(s.Path)
}

// Snapshot writes a timestamped copy of the loaded roster.
func (s FileSource) Snapshot(rows []Row) (string, error) {
	return Snapshot(rows, s.Path, s.SnapshotDir)
}
