package domain

type ReviewRequest struct {
	Code *string `json:"code"`
}

// ReviewResult is the structured review relayed to the caller.
type ReviewResult struct {
	OriginalScore           int      `json:"original_score"`
	RefinedScore            int      `json:"refined_score"`
	Bugs                    string   `json:"bugs"`
	Performance             string   `json:"performance"`
	Improvements            []string `json:"improvements"`
	OptimizedCode           string   `json:"optimized_code"`
	Explanation             string   `json:"explanation"`
	OriginalTimeComplexity  string   `json:"original_time_complexity"`
	OriginalSpaceComplexity string   `json:"original_space_complexity"`
	TimeComplexity          string   `json:"time_complexity"`
	SpaceComplexity         string   `json:"space_complexity"`
}

type TranslateRequest struct {
	Code           *string `json:"code"`
	TargetLanguage *string `json:"target_language"` // free-form, e.g. "Rust"
}

type TranslateResult struct {
	TranslatedCode string `json:"translated_code"`
}
