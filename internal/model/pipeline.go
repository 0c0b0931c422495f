package model

// Stage identifies where the scrape pipeline currently is.
type Stage string

const (
	StageConnecting                 Stage = "connecting"
	StageNavigating                 Stage = "navigating"
	StageAwaitingChallengeClearance Stage = "awaiting_challenge_clearance"
	StageScrapingStats              Stage = "scraping_stats"
	StageExpandingListingIndex      Stage = "expanding_listing_index"
	StageExtractingListings         Stage = "extracting_listings"
	StageEnriching                  Stage = "enriching"
	StagePersisting                 Stage = "persisting"
	StageDone                       Stage = "done"
	StageFailed                     Stage = "failed"
)

// PipelineState is the UI-observable view of the running pipeline.
// Progress is monotonically non-decreasing within one run.
type PipelineState struct {
	Progress        float64 `json:"progress"`
	Message         string  `json:"message"`
	CaptchaDetected bool    `json:"captcha_detected"`
	WaitingForInput bool    `json:"waiting_for_input"`
	Stage           Stage   `json:"stage"`
}

// RunStatus represents the state of a recorded scrape run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)
