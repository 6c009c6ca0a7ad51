package api

// DefaultMessage is sent with every successful analytics response.
const DefaultMessage = "Analytics data fetched successfully"

type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SeriesPoint is one bucket of a dense series. Date is the display label,
// e.g. "2023-W01 (2023-01-02 to 2023-01-08)".
type SeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type UserGrowthStats struct {
	Series               []SeriesPoint `json:"series"`
	Total                int64         `json:"total"`
	TotalUsers           int64         `json:"totalUsers"`
	TotalActiveUsers     int64         `json:"totalActiveUsers"`
	Cumulative           bool          `json:"cumulative"`
	AggregatedByInterval string        `json:"aggregatedByInterval"`
}

type ReportVolumeStats struct {
	Series               []SeriesPoint `json:"series"`
	Total                int64         `json:"total"`
	OverallTotal         int64         `json:"overallTotal"`
	AggregatedByInterval string        `json:"aggregatedByInterval"`
}

// ReportedContentStats counts distinct reported items per period.
type ReportedContentStats struct {
	Metrics              []SeriesPoint `json:"metrics"`
	Total                int64         `json:"total"`
	AggregatedByInterval string        `json:"aggregatedByInterval"`
}

type PostVolumeStats struct {
	Series               []SeriesPoint `json:"series"`
	Total                int64         `json:"total"`
	OverallTotal         int64         `json:"overallTotal"`
	AggregatedByInterval string        `json:"aggregatedByInterval"`
}

type TopPostsStats struct {
	Metrics              []PeriodPosts `json:"metrics"`
	AggregatedByInterval string        `json:"aggregatedByInterval"`
	Limit                int           `json:"limit"`
}

// PeriodPosts holds the most commented posts of one period. Posts is never
// null, periods without comments carry an empty list.
type PeriodPosts struct {
	Date  string       `json:"date"`
	Posts []PostDetail `json:"posts"`
}

type PostDetail struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	Content      *string `json:"content"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt"`
	FileURL      *string `json:"fileUrl"`
	FileSize     *int64  `json:"fileSize"`
	MediaType    *int    `json:"mediaType"`
	IsActive     bool    `json:"isActive"`
	IsEdited     bool    `json:"isEdited"`
	Status       int     `json:"status"`
	CommentCount int64   `json:"commentCount"`
}
