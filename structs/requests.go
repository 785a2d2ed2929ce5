package structs

// RateRequest is the body of POST /terrains/:id/rate. Range checks happen in
// the rating rules so every caller gets the same message.
type RateRequest struct {
	Rating int `json:"rating"`
}

type AwardPointsRequest struct {
	Action string `json:"action" binding:"required"`
	Amount int    `json:"amount"`
}

type UnlockBadgeRequest struct {
	BadgeID string `json:"badgeId" binding:"required"`
}

type CustomizeRequest struct {
	Type   string `json:"type" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
}

type UpdateNameRequest struct {
	Name string `json:"name"`
}

type ReviewReportRequest struct {
	Status string `json:"status" binding:"required"`
}

// CourtListQuery is the query string of GET /terrains.
type CourtListQuery struct {
	MinRating   float64  `form:"minRating"`
	MaxDistance float64  `form:"maxDistance"`
	Lat         *float64 `form:"lat"`
	Lng         *float64 `form:"lng"`
}
