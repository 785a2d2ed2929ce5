package rules

// Policy holds the tunable gamification and moderation constants.
type Policy struct {
	ReportThreshold int `yaml:"reportThreshold"`
	CommentPoints   int `yaml:"commentPoints"`
	CourtPoints     int `yaml:"courtPoints"`
	ReportPoints    int `yaml:"reportPoints"`
	RatingPoints    int `yaml:"ratingPoints"`
	PointsPerLevel  int `yaml:"pointsPerLevel"`
	ConflictRetries int `yaml:"conflictRetries"`
}

// DefaultPolicy returns the values the application ships with.
func DefaultPolicy() Policy {
	return Policy{
		ReportThreshold: 2,
		CommentPoints:   5,
		CourtPoints:     10,
		ReportPoints:    2,
		RatingPoints:    1,
		PointsPerLevel:  100,
		ConflictRetries: 3,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ReportThreshold == 0 {
		p.ReportThreshold = d.ReportThreshold
	}
	if p.CommentPoints == 0 {
		p.CommentPoints = d.CommentPoints
	}
	if p.CourtPoints == 0 {
		p.CourtPoints = d.CourtPoints
	}
	if p.ReportPoints == 0 {
		p.ReportPoints = d.ReportPoints
	}
	if p.RatingPoints == 0 {
		p.RatingPoints = d.RatingPoints
	}
	if p.PointsPerLevel == 0 {
		p.PointsPerLevel = d.PointsPerLevel
	}
	if p.ConflictRetries == 0 {
		p.ConflictRetries = d.ConflictRetries
	}
	return p
}
