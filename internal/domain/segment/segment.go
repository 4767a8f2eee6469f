package segment

// Segment groups players by a (format, limit) pair; it is the unit of broadcast targeting.
type Segment struct {
	ID       int64 `json:"id"`
	FormatID int64 `json:"formatId"`
	LimitID  int64 `json:"limitId"`
}

// Summary is a segment joined with its catalog names.
type Summary struct {
	SegmentID  int64  `json:"segmentId"`
	FormatID   int64  `json:"formatId"`
	FormatName string `json:"formatName"`
	LimitID    int64  `json:"limitId"`
	LimitName  string `json:"limitName"`
}
